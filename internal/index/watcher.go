package index

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dunghn/amlich/internal/storage"
)

// EventCallback is called after a watcher-driven re-sync.
type EventCallback func()

// Watch starts an fsnotify watcher on the merged month directory and
// re-syncs the index when month files change, until ctx is cancelled.
// Events are debounced so that a burst of writes (an aggregation run
// rewriting several months) triggers a single sync pass. It calls cb
// (if non-nil) after each successful sync.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := store.MergedDir()
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	// syncTimer debounces bursts of file events into one sync pass.
	var syncTimer *time.Timer
	var syncCh <-chan time.Time

	scheduleSync := func() {
		if syncTimer == nil {
			syncTimer = time.NewTimer(200 * time.Millisecond)
			syncCh = syncTimer.C
		} else {
			syncTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if syncTimer != nil {
				syncTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-syncCh:
			if err := Sync(db, store, logger); err != nil {
				logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
				continue
			}
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Atomic writes land as a rename of a temp file; only react
			// once the final .json name is involved.
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				logger.Debug("watcher: month file changed",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
				scheduleSync()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
