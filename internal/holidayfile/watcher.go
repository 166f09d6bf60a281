package holidayfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alexanderramin/stagegate/internal/domain"
)

// Syncer stores a freshly loaded holiday list.
type Syncer interface {
	Sync(ctx context.Context, holidays []domain.Holiday) (int, error)
}

// Watcher reloads the holiday file whenever it changes and hands the result
// to a Syncer. Rapid saves are coalesced.
type Watcher struct {
	path     string
	syncer   Syncer
	logger   *slog.Logger
	debounce time.Duration
	synced   chan int
}

// NewWatcher watches path. The parent directory must exist; the file itself
// may appear later.
func NewWatcher(path string, syncer Syncer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		syncer:   syncer,
		logger:   logger.With("component", "holiday-watcher", "path", path),
		debounce: 300 * time.Millisecond,
	}
}

// Run syncs once, then on every change, until ctx ends. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("holiday watcher: %w", err)
	}
	defer fw.Close()
	// Editors replace files by rename, so the directory is watched.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching holiday file")

	w.reload(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("holiday watcher error", "error", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	holidays, err := Load(w.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.logger.Debug("holiday file absent")
		return
	case err != nil:
		w.logger.Warn("holiday file rejected", "error", err)
		return
	}
	n, err := w.syncer.Sync(ctx, holidays)
	if err != nil {
		w.logger.Error("holiday sync failed", "error", err)
		return
	}
	w.logger.Info("holidays synced", "count", n)
	if w.synced != nil {
		select {
		case w.synced <- n:
		default:
		}
	}
}
