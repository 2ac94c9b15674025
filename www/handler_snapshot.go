package www

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gonum.org/v1/plot/vg"

	"github.com/angas/riskplot-go/config"
	"github.com/angas/riskplot-go/scale"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/snapshot"
)

const maxSnapshotSize = 4000

// NewSnapshotHandler renders the chart for the selection in the query, e.g.
// /snapshot.svg?x=income&y=obesity&w=800&h=600
func NewSnapshotHandler(logger *slog.Logger, hub *Hub, chart config.AppConfigChart) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := chi.URLParam(r, "format")

		sel, err := selection.New(
			fieldOrDefault(r.URL, "x", chart.GetInitialX()),
			fieldOrDefault(r.URL, "y", chart.GetInitialY()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		width := intOrDefault(r.URL, "w", int(chart.GetWidth()))
		height := intOrDefault(r.URL, "h", int(chart.GetHeight()))
		if width <= 0 || height <= 0 || width > maxSnapshotSize || height > maxSnapshotSize {
			http.Error(w, "invalid snapshot size", http.StatusBadRequest)
			return
		}

		var buf bytes.Buffer
		err = snapshot.Write(&buf, hub.Dataset(), sel, snapshot.Options{
			Width:  vg.Points(float64(width)),
			Height: vg.Points(float64(height)),
			Format: format,
			X:      chart.XScale(),
			Y:      chart.YScale(),
		})
		if err != nil {
			var empty *scale.EmptyDatasetError
			var missing *scale.MissingFieldError
			switch {
			case errors.As(err, &empty), errors.As(err, &missing):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				logger.Error("handling snapshot request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
			return
		}

		w.Header().Set("Content-Type", snapshot.ContentType(format))
		if _, err := buf.WriteTo(w); err != nil {
			logger.Warn("writing snapshot", slog.Any("error", err))
		}
	}
}
