package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"cogentcore.org/core/base/errors"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file whenever it changes and hands every successfully
// parsed Config to a callback. Consumers build a new table and graph from it; a live graph
// is never edited.
type Watcher struct {
	path    string
	fn      func(*Config)
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// WatcherOption is a functional option for configuring a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - WatcherOption: option function to apply
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher starts watching the directory of path. The file itself need not exist yet.
//
// Parameters:
//   - path: the configuration file
//   - fn: called with each reloaded Config
//   - options: functional options to configure the watcher
//
// Returns:
//   - *Watcher: the watcher; call Run to deliver reloads
//   - error: a format or watch setup error
func NewWatcher(path string, fn func(*Config), options ...WatcherOption) (*Watcher, error) {
	if _, err := FormatFromPath(path); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	// the directory, so files replaced by rename are still seen
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %q: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		fn:      fn,
		watcher: fw,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Run delivers reloads until ctx is done, then closes the watcher.
// Reload failures are logged and do not stop the watcher.
//
// Parameters:
//   - ctx: cancels the watch
//
// Returns:
//   - error: ctx.Err() when the context ends, or a watcher failure
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			errors.Log(fmt.Errorf("config: watch %q: %w", w.path, err))
		}
	}
}

// Close stops the watcher without waiting for Run to return.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if errors.Log(err) != nil {
		return
	}
	if _, _, err := cfg.Resolve(); errors.Log(err) != nil {
		return
	}
	w.logger.Info("configuration reloaded", "path", w.path, "groups", len(cfg.Groups), "clips", len(cfg.Clips))
	w.fn(cfg)
}

// Watch watches path and calls fn with every reloaded Config until ctx is done.
//
// Parameters:
//   - ctx: cancels the watch
//   - path: the configuration file
//   - fn: called with each reloaded Config
//   - options: functional options to configure the watcher
//
// Returns:
//   - error: a setup error, or ctx.Err() when the context ends
func Watch(ctx context.Context, path string, fn func(*Config), options ...WatcherOption) error {
	w, err := NewWatcher(path, fn, options...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
