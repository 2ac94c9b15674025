package www

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angas/riskplot-go/database"
)

// LogReader is the read side of the log table.
type LogReader interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
	CountLogEntries(ctx context.Context, minLvl slog.Level) (int, error)
}

func NewLogHandler(logger *slog.Logger, db LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")

		if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 0 {
			pageSize := intOrDefault(r.URL, "pageSize", 25)
			if pageSize < 1 {
				pageSize = 25
			}

			e, err := db.GetLogEntries(r.Context(), slog.LevelDebug, page, pageSize)
			if err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			data := struct {
				Page     int
				PageSize int
				More     bool
				Entries  []database.LogEntryRow
			}{
				Page:     page + 1,
				PageSize: pageSize,
				More:     len(e) == pageSize,
				Entries:  e,
			}

			if err := tm.ExecuteToWriter("log_entries.html", data, w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		} else {
			total, err := db.CountLogEntries(r.Context(), slog.LevelDebug)
			if err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if err := tm.ExecuteToWriter("log.html", struct{ Total int }{total}, w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}
