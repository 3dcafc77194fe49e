// Package watcher reports file changes inside the active project folder.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher follows the active project folder with fsnotify and publishes
// batched file_changed events on the hub.
type Watcher struct {
	hub        ports.EventHub
	debounceMS int

	mu             sync.RWMutex
	root           string
	fsw            *fsnotify.Watcher
	batcher        *Batcher
	ignorePatterns []string
	running        bool
	cancel         context.CancelFunc
	loopDone       chan struct{}
}

// NewWatcher creates a watcher with no project. Call Watch to select one.
func NewWatcher(hub ports.EventHub, debounceMS int, ignorePatterns []string) *Watcher {
	return &Watcher{
		hub:            hub,
		debounceMS:     debounceMS,
		ignorePatterns: append([]string(nil), ignorePatterns...),
	}
}

// Watch switches the watcher to root. An empty root stops watching.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	if err := w.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop previous project watch")
	}

	w.mu.Lock()
	w.root = root
	w.mu.Unlock()

	if root == "" {
		return nil
	}
	return w.Start(ctx)
}

// Root returns the watched project folder, or "" when idle.
func (w *Watcher) Root() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.root
}

// Start begins watching the current root. It is a no-op without a root.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.root == "" {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.loopDone = make(chan struct{})
	w.batcher = NewBatcher(time.Duration(w.debounceMS)*time.Millisecond, w.publishBatch)
	w.running = true
	root := w.root
	w.mu.Unlock()

	if err := w.addRecursive(fsw, root); err != nil {
		_ = w.Stop()
		return err
	}

	go w.eventLoop(watchCtx, fsw, w.loopDone)

	log.Info().
		Str("path", root).
		Int("debounce_ms", w.debounceMS).
		Msg("project watcher started")
	return nil
}

// Stop terminates watching and drops changes not yet published.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.batcher.Stop()
	fsw := w.fsw
	done := w.loopDone
	w.fsw = nil
	w.mu.Unlock()

	err := fsw.Close()
	<-done
	log.Info().Msg("project watcher stopped")
	return err
}

// AddIgnorePattern adds a pattern to the ignore list.
func (w *Watcher) AddIgnorePattern(pattern string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignorePatterns = append(w.ignorePatterns, pattern)
}

// RemoveIgnorePattern removes a pattern from the ignore list.
func (w *Watcher) RemoveIgnorePattern(pattern string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range w.ignorePatterns {
		if p == pattern {
			w.ignorePatterns = append(w.ignorePatterns[:i], w.ignorePatterns[i+1:]...)
			return
		}
	}
}

// IsRunning returns true if the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// addRecursive watches dir and every non-ignored directory below it.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, dir string) error {
	root := w.Root()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && w.shouldIgnore(rel) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to add watch")
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	w.mu.RLock()
	root := w.root
	batcher := w.batcher
	w.mu.RUnlock()
	if batcher == nil {
		return
	}

	relPath, err := filepath.Rel(root, event.Name)
	if err != nil {
		relPath = event.Name
	}
	if w.shouldIgnore(relPath) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(fsw, event.Name)
		}
		batcher.Add(relPath, events.FileChangeCreated)
	case event.Has(fsnotify.Write):
		batcher.Add(relPath, events.FileChangeModified)
	case event.Has(fsnotify.Remove):
		batcher.Add(relPath, events.FileChangeDeleted)
	case event.Has(fsnotify.Rename):
		batcher.AddRename(filepath.Dir(relPath), relPath)
	}
}

// publishBatch emits one event per coalesced change. A create in a
// directory with an outstanding rename is reported as that rename; renames
// with no matching create are reported as deletions.
func (w *Watcher) publishBatch(changes []change, renamedFrom map[string]string) {
	w.mu.RLock()
	root := w.root
	w.mu.RUnlock()

	for _, c := range changes {
		if c.Type == events.FileChangeCreated {
			dir := filepath.Dir(c.Path)
			if oldPath, ok := renamedFrom[dir]; ok {
				delete(renamedFrom, dir)
				w.hub.Publish(events.NewFileRenamedEvent(oldPath, c.Path))
				log.Debug().Str("old_path", oldPath).Str("new_path", c.Path).Msg("file renamed")
				continue
			}
		}

		var size int64
		if c.Type != events.FileChangeDeleted {
			if info, err := os.Stat(filepath.Join(root, c.Path)); err == nil {
				size = info.Size()
			}
		}
		w.hub.Publish(events.NewFileChangedEvent(c.Path, c.Type, size))
		log.Debug().Str("path", c.Path).Str("change", string(c.Type)).Msg("file changed")
	}

	for _, oldPath := range renamedFrom {
		w.hub.Publish(events.NewFileChangedEvent(oldPath, events.FileChangeDeleted, 0))
	}
}

// shouldIgnore reports whether any component of path matches an ignore pattern.
func (w *Watcher) shouldIgnore(path string) bool {
	w.mu.RLock()
	patterns := w.ignorePatterns
	w.mu.RUnlock()

	for _, part := range splitPath(path) {
		for _, pattern := range patterns {
			if matched, _ := filepath.Match(pattern, part); matched {
				return true
			}
		}
	}
	return false
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	var parts []string
	for path != "" && path != "/" && path != "." {
		dir, file := filepath.Split(path)
		if file != "" {
			parts = append([]string{file}, parts...)
		}
		path = filepath.Clean(dir)
	}
	return parts
}

// Ensure Watcher implements ports.FileWatcher.
var _ ports.FileWatcher = (*Watcher)(nil)
