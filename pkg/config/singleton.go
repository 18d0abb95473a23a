package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotInitialized is returned when the process configuration is used
// before Initialize.
var ErrNotInitialized = errors.New("configuration not initialized")

// process is the configuration shared by every command in the process.
// revision counts successful installs so a watcher can tell reloads apart.
var process struct {
	mu       sync.RWMutex
	once     sync.Once
	path     string
	cfg      *Config
	revision uint64
}

// Initialize remembers path as the process configuration file and loads it
// with environment overrides. Only the first call has any effect. The path
// is kept even when loading fails, so ReloadConfig can recover once the
// file is fixed.
func Initialize(path string) error {
	var initErr error

	process.once.Do(func() {
		process.mu.Lock()
		process.path = path
		process.mu.Unlock()

		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		install(cfg)
	})

	return initErr
}

// GetConfig returns the installed configuration, or nil.
func GetConfig() *Config {
	process.mu.RLock()
	defer process.mu.RUnlock()
	return process.cfg
}

// MustGetConfig returns the installed configuration and panics without one.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// Path returns the file given to Initialize.
func Path() string {
	process.mu.RLock()
	defer process.mu.RUnlock()
	return process.path
}

// Revision returns how many configurations have been installed.
func Revision() uint64 {
	process.mu.RLock()
	defer process.mu.RUnlock()
	return process.revision
}

// ReloadConfig reloads the file given to Initialize. The installed
// configuration changes only if loading and validation succeed.
func ReloadConfig() (*Config, error) {
	path := Path()
	if path == "" {
		return nil, ErrNotInitialized
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}
	install(cfg)
	return cfg, nil
}

// Watch reloads the process configuration after every debounced change to
// its file and reports each outcome to onChange. A broken edit leaves the
// previous configuration installed. Watch blocks until ctx is done.
func Watch(ctx context.Context, interval time.Duration, logger *slog.Logger, onChange func(*Config, error)) error {
	path := Path()
	if path == "" {
		return ErrNotInitialized
	}

	w, err := NewWatcher(path, interval, logger)
	if err != nil {
		return err
	}
	w.load = ReloadConfig
	return w.Watch(ctx, onChange)
}

func install(cfg *Config) {
	process.mu.Lock()
	defer process.mu.Unlock()
	process.cfg = cfg
	process.revision++
}
