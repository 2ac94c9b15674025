package www

import (
	"log/slog"
	"net/http"
	"time"
)

type SysInfo struct {
	Version     string
	StartedAt   time.Time
	DatasetPath string
}

func NewSysInfoHandler(logger *slog.Logger, tm *TemplateManager, hub *Hub, sysInfo SysInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")

		data := struct {
			SysInfo
			Uptime  time.Duration
			Clients int
			Records int
		}{
			SysInfo: sysInfo,
			Uptime:  time.Since(sysInfo.StartedAt).Round(time.Second),
			Clients: hub.Count(),
			Records: hub.Dataset().Len(),
		}

		if err := tm.ExecuteToWriter("sys_info.html", data, w); err != nil {
			logger.Error("handling sys info request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
