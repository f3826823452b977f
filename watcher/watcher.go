// Package watcher turns fsnotify events below the indexed roots into debounced change
// batches for the service.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lexandro/hslindex/service"
)

// Filter decides which paths are reported and which directories are watched.
type Filter interface {
	ShouldIgnore(absolutePath string, isDir bool) bool
}

// Handler receives debounced change batches.
type Handler interface {
	HandleChanges(changes []service.Change) error
}

// Watcher provides recursive file system watching of a changing set of roots.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    Filter
	logger    *slog.Logger

	mu    sync.Mutex
	roots map[string]bool
}

// NewWatcher creates a watcher with no roots. Call Sync to start watching.
func NewWatcher(filter Filter, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(interval),
		filter:    filter,
		logger:    logger,
		roots:     make(map[string]bool),
	}, nil
}

// Sync makes the watched roots equal to roots: new roots are watched recursively and
// dropped roots stop being watched. Missing roots are skipped.
func (w *Watcher) Sync(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wanted := make(map[string]bool, len(roots))
	for _, root := range roots {
		wanted[root] = true
		if w.roots[root] {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			w.logger.Debug("not watching missing root", "root", root, "error", err)
			continue
		}
		w.addTree(root)
		w.roots[root] = true
		w.logger.Info("watching root", "root", root)
	}

	for root := range w.roots {
		if wanted[root] {
			continue
		}
		w.removeTree(root)
		delete(w.roots, root)
		w.logger.Info("stopped watching root", "root", root)
	}
}

// addTree watches dir and every directory below it the filter does not exclude.
func (w *Watcher) addTree(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries that can't be read
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.ShouldIgnore(path, true) {
			return filepath.SkipDir
		}
		if watchErr := w.fsWatcher.Add(path); watchErr != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", watchErr)
		}
		return nil
	})
}

// removeTree stops watching dir and everything below it, unless another root still
// covers the path.
func (w *Watcher) removeTree(dir string) {
	prefix := dir + string(filepath.Separator)
	for _, path := range w.fsWatcher.WatchList() {
		if path != dir && !strings.HasPrefix(path, prefix) {
			continue
		}
		if w.coveredLocked(path, dir) {
			continue
		}
		w.fsWatcher.Remove(path)
	}
}

func (w *Watcher) coveredLocked(path, except string) bool {
	for root := range w.roots {
		if root == except {
			continue
		}
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run processes events and hands debounced batches to handler until ctx is cancelled
// or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, handler Handler) {
	go w.deliver(ctx, handler)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) deliver(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-w.debouncer.Output():
			if err := handler.HandleChanges(batch); err != nil {
				w.logger.Warn("applying changes", "changes", len(batch), "error", err)
			} else {
				w.logger.Debug("changes applied", "changes", len(batch))
			}
		}
	}
}

// handleEvent maps a single fsnotify event to a change kind.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		if err != nil {
			return
		}
		if w.filter.ShouldIgnore(path, info.IsDir()) {
			return
		}
		if info.IsDir() {
			// A directory moved in brings files that produce no events of their own
			w.mu.Lock()
			w.addTree(path)
			w.mu.Unlock()
		}
		w.debouncer.Add(path, service.ChangeCreated)

	case event.Has(fsnotify.Write):
		if w.filter.ShouldIgnore(path, false) {
			return
		}
		w.debouncer.Add(path, service.ChangeSizeChanged)

	case event.Has(fsnotify.Remove):
		if w.filter.ShouldIgnore(path, false) {
			return
		}
		w.debouncer.Add(path, service.ChangeDeleted)

	case event.Has(fsnotify.Rename):
		// The destination shows up as a Create; a watched directory keeps no stale watch
		w.fsWatcher.Remove(path)
		if w.filter.ShouldIgnore(path, false) {
			return
		}
		w.debouncer.Add(path, service.ChangeRenamedFrom)
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
