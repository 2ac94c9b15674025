package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angas/riskplot-go/config"
	"github.com/angas/riskplot-go/events"
	"github.com/angas/riskplot-go/metrics"
	"github.com/angas/riskplot-go/render"
)

type Server struct {
	logger  *slog.Logger
	config  *config.AppConfig
	db      LogReader
	hub     *Hub
	tm      *TemplateManager
	metrics *metrics.Metrics
	events  *events.Publisher
	router  chi.Router
}

//go:embed static
var embeddedStaticDir embed.FS

// StartServer sets up the routes and starts the client hub. The hub stops
// when ctx is done. Metrics and events may be nil.
func StartServer(
	ctx context.Context,
	cnfg *config.AppConfig,
	db LogReader,
	hub *Hub,
	m *metrics.Metrics,
	pub *events.Publisher,
	sysInfo SysInfo,
) (*Server, error) {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, cnfg.Api.WwwDir)
	if err != nil {
		return nil, fmt.Errorf("template manager initialization error: %w", err)
	}

	s := &Server{
		logger:  logger,
		config:  cnfg,
		db:      db,
		hub:     hub,
		tm:      tm,
		metrics: m,
		events:  pub,
	}

	if m != nil {
		hub.OnCount = func(n int) { m.Clients.Set(float64(n)) }
	}
	go s.hub.Run(ctx.Done())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if m != nil {
		reg.MustRegister(m)
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr),
				slog.String("requestID", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logReqMW, middleware.Recoverer)

	r.Get("/", NewIndexHandler(logger.With(slog.String("handler", "index")), s.tm, cnfg.Chart))
	r.Handle("/static/*", http.StripPrefix("/static/", staticFilesHandler(cnfg.Api.WwwDir)))
	r.Get("/ws", s.handleWebsocket)

	r.Group(func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: cnfg.Api.GetAllowedOrigins(),
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
		api.Get("/dataset", NewDatasetHandler(logger.With(slog.String("handler", "dataset")), s.hub))
		api.Get("/snapshot.{format}", NewSnapshotHandler(logger.With(slog.String("handler", "snapshot")), s.hub, cnfg.Chart))
	})

	r.Get("/log", NewLogHandler(logger.With(slog.String("handler", "log")), s.db, s.tm))
	r.Get("/sys_info", NewSysInfoHandler(logger.With(slog.String("handler", "sys_info")), s.tm, s.hub, sysInfo))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorHandling:     promhttp.ContinueOnError,
		EnableOpenMetrics: true,
	}))

	s.router = r
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get("User-Agent")
	client, err := NewClient(s.hub, w, r, name)
	if err != nil {
		s.logger.Error("new websocket client failed", slog.Any("error", err))
		return
	}

	opts, err := s.config.Chart.RenderOptions()
	if err != nil {
		s.logger.Error("chart options", slog.Any("error", err))
		client.conn.Close()
		return
	}

	// Register before reading the dataset so a concurrent reload reaches
	// this client.
	select {
	case s.hub.Register <- client:
	case <-s.hub.done:
		client.conn.Close()
		return
	}

	coord := render.NewCoordinator(
		client.logger.With(slog.String("module", "render")),
		socketRenderer{client: client},
		render.SystemClock{},
		s.hub.Dataset(),
		opts)
	if s.metrics != nil {
		coord.Observe(s.metrics)
	}
	if s.events != nil {
		coord.Observe(s.events.Observer(client.ID()))
	}

	go client.WritePump()
	go client.ReadPump()
	// The request context ends when the handler returns, the session
	// ends with the connection instead.
	go runSession(context.Background(), client, coord)
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.config.Api.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Api.Address, s.config.Api.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.Any("error", err))
		}

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}
}

func staticFilesHandler(extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
