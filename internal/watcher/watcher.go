// Package watcher triggers a callback when log files in a directory change.
//
// Events are coalesced: a burst of writes to any number of matching files
// produces a single callback once the directory has been quiet for the
// debounce window.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"jsonlogs/internal/logging"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	tickInterval    = 100 * time.Millisecond
)

// Options configures a Watcher.
type Options struct {
	// Filter reports whether a base filename is relevant. Nil accepts all.
	Filter func(name string) bool

	// Debounce is the quiet period after the last event before OnChange runs.
	Debounce time.Duration

	// OnChange runs on the watcher goroutine; it must not block for long.
	OnChange func()
}

// Stats tracks watcher activity.
type Stats struct {
	Created       int
	Modified      int
	Removed       int
	Refreshes     int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// Watcher watches a single directory, non-recursively.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	dir      string
	opts     Options
	logger   *logging.AppLogger
	pending  bool
	lastSeen time.Time
	stats    Stats
	running  bool
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a watcher for dir. Call Start to begin watching.
func New(dir string, logger *logging.AppLogger, opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, errors.New("watcher: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:    fsw,
		dir:    dir,
		opts:   opts,
		logger: logger.With("component", "watcher"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start adds the directory to the watch list and runs the event loop in a
// goroutine. It returns an error when the directory cannot be watched.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.started = true
	w.running = true

	w.logger.Info("Watching log directory", "dir", w.dir, "debounce", w.opts.Debounce)
	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the underlying watcher. It is safe to
// call more than once, and on a watcher that was never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		started := w.started
		w.running = false
		w.mu.Unlock()

		if started {
			close(w.stopCh)
			<-w.doneCh
		}

		if err := w.fsw.Close(); err != nil {
			w.logger.Error("Error closing watcher", "error", err)
		}
	})
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns a copy of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(min(tickInterval, w.opts.Debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Context cancelled")
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.opts.Filter != nil && !w.opts.Filter(filepath.Base(event.Name)) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Has(fsnotify.Create):
		w.stats.Created++
	case event.Has(fsnotify.Write):
		w.stats.Modified++
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.stats.Removed++
	default:
		return // chmod
	}

	w.logger.Debug("Log file event", "op", event.Op.String(), "path", event.Name)
	now := time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = now
	w.lastSeen = now
	w.pending = true
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastSeen) < w.opts.Debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.stats.Refreshes++
	w.mu.Unlock()

	w.opts.OnChange()
}
