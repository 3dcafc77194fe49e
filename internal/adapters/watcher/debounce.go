package watcher

import (
	"time"

	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/sync"
)

// change is one coalesced entry of a batch.
type change struct {
	Path string
	Type events.FileChangeType
}

// Batcher coalesces file system changes and flushes them together once
// no new change has arrived for the configured window.
type Batcher struct {
	window time.Duration
	flush  func(changes []change, renamedFrom map[string]string)

	mu      sync.Mutex
	order   []string
	pending map[string]events.FileChangeType
	renames map[string]string // dir -> old path awaiting its new name
	timer   *time.Timer
	stopped bool
}

// NewBatcher creates a batcher that calls flush after each quiet window.
func NewBatcher(window time.Duration, flush func(changes []change, renamedFrom map[string]string)) *Batcher {
	return &Batcher{
		window:  window,
		flush:   flush,
		pending: make(map[string]events.FileChangeType),
		renames: make(map[string]string),
	}
}

// Add records a change for path and restarts the quiet window.
func (b *Batcher) Add(path string, changeType events.FileChangeType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	if existing, ok := b.pending[path]; ok {
		b.pending[path] = mergeChangeTypes(existing, changeType)
	} else {
		b.pending[path] = changeType
		b.order = append(b.order, path)
	}
	b.resetLocked()
}

// AddRename records that oldPath in dir was renamed away.
func (b *Batcher) AddRename(dir, oldPath string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.renames[dir] = oldPath
	b.resetLocked()
}

func (b *Batcher) resetLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.fire)
}

func (b *Batcher) fire() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	changes := make([]change, 0, len(b.order))
	for _, p := range b.order {
		changes = append(changes, change{Path: p, Type: b.pending[p]})
	}
	renames := b.renames

	b.order = nil
	b.pending = make(map[string]events.FileChangeType)
	b.renames = make(map[string]string)
	b.timer = nil
	b.mu.Unlock()

	if len(changes) > 0 || len(renames) > 0 {
		b.flush(changes, renames)
	}
}

// Stop discards pending changes.
func (b *Batcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.order = nil
	b.pending = make(map[string]events.FileChangeType)
	b.renames = make(map[string]string)
}

// mergeChangeTypes combines two change types, preferring the more significant one.
func mergeChangeTypes(existing, next events.FileChangeType) events.FileChangeType {
	if next == events.FileChangeDeleted {
		return events.FileChangeDeleted
	}
	if existing == events.FileChangeCreated {
		return events.FileChangeCreated
	}
	return next
}
