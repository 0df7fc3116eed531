// Package watcher reloads the election datasets when their CSV files change
// on disk, so edits show up in the dashboard without a restart.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"electionpulse/internal/infrastructure"
)

// Reloader reloads the datasets from disk
type Reloader interface {
	Reload(ctx context.Context) error
}

// Broadcaster notifies connected clients that data changed
type Broadcaster interface {
	BroadcastRefresh(source string, components []string)
}

// DatasetWatcher watches the dataset directory and triggers a reload when one
// of the tracked files settles after a change. Rapid successive writes (most
// editors write several times per save) are debounced.
type DatasetWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	files    map[string]bool
	debounce time.Duration

	reloader    Reloader
	broadcaster Broadcaster
	logger      *slog.Logger

	pending map[string]time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	reloads int64
}

// New creates a watcher over dir tracking the named files.
func New(dir string, files []string, debounce time.Duration, reloader Reloader, broadcaster Broadcaster, logger *slog.Logger) (*DatasetWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "dataset_watcher"))

	tracked := make(map[string]bool, len(files))
	for _, f := range files {
		if f != "" {
			tracked[f] = true
		}
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &DatasetWatcher{
		watcher:     fsw,
		dir:         dir,
		files:       tracked,
		debounce:    debounce,
		reloader:    reloader,
		broadcaster: broadcaster,
		logger:      logger,
		pending:     make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *DatasetWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	w.logger.InfoContext(ctx, "watching dataset directory",
		slog.String("dir", w.dir),
		slog.Int("files", len(w.files)),
		slog.Duration("debounce", w.debounce))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *DatasetWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", slog.String("error", err.Error()))
	}
	w.logger.Info("dataset watcher stopped")
}

// Running reports whether the event loop is active
func (w *DatasetWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Reloads returns how many reloads the watcher has triggered
func (w *DatasetWatcher) Reloads() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *DatasetWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *DatasetWatcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !w.files[name] {
		return
	}

	// writes, creates and renames all mean the file content changed;
	// chmod and remove alone do not warrant a reload
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("dataset file changed",
		slog.String("file", name),
		slog.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

func (w *DatasetWatcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	settled := false
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			delete(w.pending, name)
			settled = true
		}
	}
	w.mu.Unlock()

	if !settled {
		return
	}

	// one reload covers every settled file; Reload re-reads all datasets
	if err := w.reloader.Reload(ctx); err != nil {
		w.logger.ErrorContext(ctx, "auto-reload failed",
			slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "datasets reloaded after file change")

	if w.broadcaster != nil {
		w.broadcaster.BroadcastRefresh("file_watcher", []string{"all"})
	}
}
