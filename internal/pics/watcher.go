package pics

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/acm19/webpics/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs a batch when source images in a directory change.
type Watcher struct {
	dir        string
	extensions Extensions
	exclusion  *Exclusion
	debounce   time.Duration
	run        func(ctx context.Context) error
}

// NewWatcher creates a Watcher over dir. run is invoked once per settled burst of changes to
// recognised, non-excluded sources; runs never overlap.
func NewWatcher(dir string, exclusion *Exclusion, debounce time.Duration, run func(ctx context.Context) error) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:        dir,
		extensions: NewExtensions(),
		exclusion:  exclusion,
		debounce:   debounce,
		run:        run,
	}
}

// Relevant reports whether a change to name should trigger a batch.
func (w *Watcher) Relevant(name string) bool {
	base := filepath.Base(name)
	return w.extensions.IsSource(base) && !w.exclusion.Excluded(base)
}

// Watch blocks until ctx is cancelled, triggering run on relevant changes.
func (w *Watcher) Watch(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	logger.Info("Watching folder", "dir", w.dir)

	var (
		mu      sync.Mutex
		running sync.Mutex
		timer   *time.Timer
	)
	trigger := func() {
		running.Lock()
		defer running.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := w.run(ctx); err != nil {
			logger.Error("Batch triggered by change failed", "dir", w.dir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.Relevant(event.Name) {
				continue
			}
			logger.Debug("Source changed", "file", event.Name, "op", event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, trigger)
			mu.Unlock()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}
