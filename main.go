package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/angas/riskplot-go/config"
	"github.com/angas/riskplot-go/database"
	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/events"
	"github.com/angas/riskplot-go/logging"
	"github.com/angas/riskplot-go/metrics"
	"github.com/angas/riskplot-go/task"
	"github.com/angas/riskplot-go/www"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("riskplot is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	policy := cnfg.Dataset.GetOnMalformed()
	res, err := dataset.LoadFile(cnfg.Dataset.Path, policy)
	if err != nil {
		exitWithError(logger, fmt.Errorf("failed to load dataset: %w", err))
	}
	for _, skipped := range res.Skipped {
		logger.Warn("skipping malformed record", slog.Any("error", skipped))
	}
	logger.Info("dataset loaded",
		slog.String("path", cnfg.Dataset.Path),
		slog.Int("records", res.Records.Len()),
		slog.Int("skipped", len(res.Skipped)))

	m := metrics.New()
	m.DatasetLoaded(res)

	var pub *events.Publisher
	if !cnfg.Events.Enabled() {
		logger.Info("no mqtt broker configured, selection events are not published")
	} else if isDevMode() {
		logger.Info("dev mode, skipping mqtt connection")
	} else {
		pub = events.New(events.Options{
			Broker:      cnfg.Events.Broker,
			Port:        cnfg.Events.GetPort(),
			Username:    cnfg.Events.Username,
			Password:    cnfg.Events.Password,
			ClientID:    cnfg.Events.GetClientID(),
			TopicPrefix: cnfg.Events.GetTopicPrefix(),
		})
		if err := pub.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		go pub.Run(ctx)
		pub.DatasetReloaded(res)
	}

	hub := www.NewHub(logger.With("module", "hub"), res.Records)

	if cnfg.Dataset.Watch {
		watcher, err := dataset.NewWatcher(logger.With("module", "dataset"), cnfg.Dataset.Path, policy)
		if err != nil {
			panic(fmt.Sprintf("failed to watch dataset: %v", err))
		}
		watcher.OnReload = func(r dataset.Result) {
			m.DatasetLoaded(r)
			if pub != nil {
				pub.DatasetReloaded(r)
			}
			hub.Reload(r.Records)
		}
		go watcher.Run(ctx)
	}

	tasks := task.NewTasks(db, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := tasks.Run(); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server, err := www.StartServer(ctx, cnfg, db, hub, m, pub, www.SysInfo{
		Version:     Version,
		StartedAt:   time.Now(),
		DatasetPath: cnfg.Dataset.Path,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to start server: %v", err))
	}
	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
