package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the dataset file when it is written or replaced and hands
// every successfully loaded result to OnReload.
type Watcher struct {
	logger   *slog.Logger
	path     string
	policy   Policy
	watcher  *fsnotify.Watcher
	OnReload func(Result)
}

func NewWatcher(logger *slog.Logger, path string, policy Policy) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset watcher: %w", err)
	}

	// Watch the directory, editors tend to replace files instead of writing them.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch dataset directory: %w", err)
	}

	return &Watcher{
		logger:  logger,
		path:    filepath.Clean(path),
		policy:  policy,
		watcher: watcher,
	}, nil
}

func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("error watching dataset", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	res, err := LoadFile(w.path, w.policy)
	if err != nil {
		w.logger.Error("dataset reload failed, keeping previous dataset", slog.Any("error", err))
		return
	}
	for _, skipped := range res.Skipped {
		w.logger.Warn("skipping malformed record", slog.Any("error", skipped))
	}
	w.logger.Info("dataset reloaded", slog.Int("records", res.Records.Len()))

	if w.OnReload != nil {
		w.OnReload(res)
	}
}
