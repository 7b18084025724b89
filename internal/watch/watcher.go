// Package watch monitors the roster files on disk and triggers a debounced
// reload when an external editor changes them.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/namepick/internal/util/sets"
)

// ReloadFunc is invoked after roster file changes settle. It receives the
// watcher's context; a returned error is logged, not fatal.
type ReloadFunc func(ctx context.Context) error

// RosterWatcher monitors the roster and female-subset files for changes.
type RosterWatcher struct {
	paths        []string
	reload       ReloadFunc
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopOnce     sync.Once
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewRosterWatcher builds a watcher over the given files. Paths are resolved
// to absolute form so events match regardless of how editors rewrite them.
func NewRosterWatcher(reload ReloadFunc, paths ...string) (*RosterWatcher, error) {
	if reload == nil {
		return nil, fmt.Errorf("reload callback is required")
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path to watch is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolve watch path %s: %w", p, err)
		}
		abs = append(abs, a)
	}

	return &RosterWatcher{
		paths:        abs,
		reload:       reload,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: time.Second,
	}, nil
}

// SetDebounce overrides the settle delay. Must be called before Start.
func (w *RosterWatcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounceTime = d
	}
}

// Start begins monitoring. Watching the containing directories rather than
// the files themselves survives editors that replace files on save.
func (w *RosterWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs := sets.New[string]()
	for _, p := range w.paths {
		dirs.Add(filepath.Dir(p))
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
	}

	slog.Info("Starting roster watcher", "paths", w.paths)

	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)

	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *RosterWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		slog.Info("Stopping roster watcher")
		close(w.stopChan)
		err = w.watcher.Close()
	})
	return err
}

func (w *RosterWatcher) watchLoop(ctx context.Context) {
	watched := sets.New[string]()
	for _, p := range w.paths {
		watched.Add(filepath.Base(p))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !watched.Has(filepath.Base(event.Name)) {
				continue
			}

			switch {
			case event.Op&fsnotify.Write == fsnotify.Write:
				slog.Debug("Roster file write detected", "file", event.Name)
				w.triggerReload()
			case event.Op&fsnotify.Create == fsnotify.Create:
				slog.Debug("Roster file create detected", "file", event.Name)
				w.triggerReload()
			case event.Op&fsnotify.Rename == fsnotify.Rename:
				slog.Debug("Roster file rename detected", "file", event.Name)
				w.triggerReload()
			case event.Op&fsnotify.Remove == fsnotify.Remove:
				slog.Warn("Roster file removed", "file", event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Roster watcher error", "error", err)
		}
	}
}

// reloadLoop debounces change notifications so a burst of editor writes
// produces one reload.
func (w *RosterWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reloadChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceTime, func() {
				slog.Info("Roster files changed, reloading")
				if err := w.reload(ctx); err != nil {
					slog.Error("Roster reload failed", "error", err)
				}
			})
		}
	}
}

func (w *RosterWatcher) triggerReload() {
	select {
	case w.reloadChan <- struct{}{}:
	default:
		// reload already pending
	}
}
