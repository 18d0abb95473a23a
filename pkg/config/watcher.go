package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period a Watcher waits for after the
// last file event before invoking its callback.
const DefaultDebounceInterval = 100 * time.Millisecond

// ErrWatcherRunning is returned by Watch when the watcher is already running.
var ErrWatcherRunning = errors.New("watcher already running")

// Watcher watches a configuration file and reloads it when it changes.
// Bursts of events are debounced into a single reload.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file by rename are still observed.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	debounce *debouncer
	load     func() (*Config, error)

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the configuration file at path.
// A non-positive interval uses DefaultDebounceInterval.
func NewWatcher(path string, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default().With("component", "config.watcher")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:     abs,
		interval: interval,
		logger:   logger,
		fsw:      fsw,
		debounce: newDebouncer(interval),
	}
	w.load = func() (*Config, error) { return LoadConfigWithEnvOverrides(w.path) }
	return w, nil
}

// Watch blocks until ctx is cancelled, calling onChange with the freshly
// loaded configuration, or the load error, after each debounced change.
// The watcher is closed when Watch returns.
func (w *Watcher) Watch(ctx context.Context, onChange func(*Config, error)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrWatcherRunning
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.stop()
		w.fsw.Close()
	}()

	if err := w.fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("config watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("config file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.debounce.trigger(func() {
				cfg, err := w.load()
				if err != nil {
					w.logger.Warn("config reload failed", "error", err)
				}
				onChange(cfg, err)
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// debouncer collects rapid events and runs only the latest callback after a
// quiet period.
type debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
