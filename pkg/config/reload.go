package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// InjectionReloader watches the config file and the injection engine's
// context files, and swaps the active InjectionConfig under a lock whenever
// any of them changes. This lets an operator edit the system prompt or a
// context file without restarting the proxy.
type InjectionReloader struct {
	configPath string

	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu  sync.RWMutex
	cur InjectionConfig

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewInjectionReloader creates a reloader seeded with the injection config
// currently loaded from configPath.
func NewInjectionReloader(configPath string, initial InjectionConfig) (*InjectionReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	r := &InjectionReloader{
		configPath: configPath,
		watcher:    watcher,
		debounce:   250 * time.Millisecond,
		cur:        initial,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	if err := r.watchPaths(initial); err != nil {
		watcher.Close()
		return nil, err
	}

	return r, nil
}

// watchPaths registers the config file and every context file referenced by
// cfg with the underlying fsnotify watcher. fsnotify watches directories, not
// individual inodes that may be replaced by editors, so each watched file's
// parent directory is added instead of the file itself.
func (r *InjectionReloader) watchPaths(cfg InjectionConfig) error {
	dirs := map[string]struct{}{
		filepath.Dir(r.configPath): {},
	}
	for _, f := range cfg.ContextFiles {
		dirs[filepath.Dir(f)] = struct{}{}
	}

	for dir := range dirs {
		if err := r.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}
	return nil
}

// Current returns the active injection configuration.
func (r *InjectionReloader) Current() InjectionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

// Run processes fsnotify events until ctx is cancelled or Stop is called. It
// is intended to be run in its own goroutine.
func (r *InjectionReloader) Run(ctx context.Context) {
	defer close(r.doneCh)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.debounce, r.reload)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("injection config watcher error", "error", err)
		}
	}
}

func (r *InjectionReloader) reload() {
	cfg, err := LoadConfigWithEnvOverrides(r.configPath)
	if err != nil {
		slog.Error("injection config reload failed", "path", r.configPath, "error", err)
		return
	}

	for _, f := range cfg.Injection.ContextFiles {
		if _, err := os.Stat(f); err != nil {
			slog.Error("injection context file unreadable, keeping previous config", "path", f, "error", err)
			return
		}
	}

	r.mu.Lock()
	r.cur = cfg.Injection
	r.mu.Unlock()

	slog.Info("injection config reloaded", "path", r.configPath)

	if err := r.watchPaths(cfg.Injection); err != nil {
		slog.Error("injection config reload: watching new context directories", "error", err)
	}
}

// Stop terminates the watch loop and releases the underlying fsnotify
// watcher.
func (r *InjectionReloader) Stop() error {
	close(r.stopCh)
	<-r.doneCh
	return r.watcher.Close()
}
