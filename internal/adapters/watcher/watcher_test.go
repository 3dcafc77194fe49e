package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/testutil"
)

func fileChanges(h *testutil.MockEventHub) []events.FileChangedPayload {
	var out []events.FileChangedPayload
	for _, e := range h.EventsOfType(events.EventTypeFileChanged) {
		if p, ok := e.(*events.BaseEvent).Payload.(events.FileChangedPayload); ok {
			out = append(out, p)
		}
	}
	return out
}

func waitForChange(t *testing.T, h *testutil.MockEventHub, match func(events.FileChangedPayload) bool) events.FileChangedPayload {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, p := range fileChanges(h) {
			if match(p) {
				return p
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("no matching file_changed event, got %+v", fileChanges(h))
	return events.FileChangedPayload{}
}

func TestWatcher_ReportsCreatedFile(t *testing.T) {
	root := t.TempDir()
	h := testutil.NewMockEventHub()
	w := NewWatcher(h, 20, nil)

	if err := w.Watch(context.Background(), root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := waitForChange(t, h, func(p events.FileChangedPayload) bool { return p.Path == "main.go" })
	if p.Change != events.FileChangeCreated && p.Change != events.FileChangeModified {
		t.Errorf("change = %s, want created or modified", p.Change)
	}
}

func TestWatcher_IgnoresPatterns(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h := testutil.NewMockEventHub()
	w := NewWatcher(h, 20, []string{".git", "*.tmp"})

	if err := w.Watch(context.Background(), root); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	_ = os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "kept.txt"), []byte("x"), 0o644)

	waitForChange(t, h, func(p events.FileChangedPayload) bool { return p.Path == "kept.txt" })
	for _, p := range fileChanges(h) {
		if p.Path == "scratch.tmp" || filepath.Dir(p.Path) == ".git" {
			t.Errorf("ignored path reported: %s", p.Path)
		}
	}
}

func TestWatcher_WatchSwitchesRoot(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	h := testutil.NewMockEventHub()
	w := NewWatcher(h, 20, nil)

	if err := w.Watch(context.Background(), first); err != nil {
		t.Fatalf("Watch(first) error = %v", err)
	}
	if err := w.Watch(context.Background(), second); err != nil {
		t.Fatalf("Watch(second) error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	if w.Root() != second {
		t.Errorf("Root() = %s, want %s", w.Root(), second)
	}

	_ = os.WriteFile(filepath.Join(first, "old.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(second, "new.txt"), []byte("x"), 0o644)

	waitForChange(t, h, func(p events.FileChangedPayload) bool { return p.Path == "new.txt" })
	for _, p := range fileChanges(h) {
		if p.Path == "old.txt" {
			t.Error("change in the previous project was reported")
		}
	}
}

func TestWatcher_WatchEmptyStops(t *testing.T) {
	h := testutil.NewMockEventHub()
	w := NewWatcher(h, 20, nil)

	if err := w.Watch(context.Background(), t.TempDir()); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if !w.IsRunning() {
		t.Fatal("watcher should be running")
	}
	if err := w.Watch(context.Background(), ""); err != nil {
		t.Fatalf("Watch(\"\") error = %v", err)
	}
	if w.IsRunning() {
		t.Error("watcher should stop when the project is cleared")
	}
	if w.Root() != "" {
		t.Errorf("Root() = %q, want empty", w.Root())
	}
}

func TestWatcher_StartWithoutRootIsNoop(t *testing.T) {
	w := NewWatcher(testutil.NewMockEventHub(), 20, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("watcher without a root should not run")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() on idle watcher error = %v", err)
	}
}

func TestWatcher_PublishBatchPairsRenames(t *testing.T) {
	root := t.TempDir()
	_ = os.WriteFile(filepath.Join(root, "new.txt"), []byte("content"), 0o644)
	h := testutil.NewMockEventHub()
	w := NewWatcher(h, 20, nil)
	w.root = root

	w.publishBatch(
		[]change{{Path: "new.txt", Type: events.FileChangeCreated}},
		map[string]string{".": "old.txt", "sub": "sub/gone.txt"},
	)

	got := fileChanges(h)
	if len(got) != 2 {
		t.Fatalf("events = %+v, want 2", got)
	}
	if got[0].Change != events.FileChangeRenamed || got[0].OldPath != "old.txt" || got[0].Path != "new.txt" {
		t.Errorf("first event = %+v, want rename old.txt -> new.txt", got[0])
	}
	if got[1].Change != events.FileChangeDeleted || got[1].Path != "sub/gone.txt" {
		t.Errorf("second event = %+v, want deletion of sub/gone.txt", got[1])
	}
}

func TestWatcher_IgnorePatternEdits(t *testing.T) {
	w := NewWatcher(testutil.NewMockEventHub(), 20, nil)
	w.AddIgnorePattern("node_modules")

	if !w.shouldIgnore(filepath.Join("web", "node_modules", "x.js")) {
		t.Error("nested node_modules should be ignored")
	}
	w.RemoveIgnorePattern("node_modules")
	if w.shouldIgnore(filepath.Join("web", "node_modules", "x.js")) {
		t.Error("pattern should no longer apply after removal")
	}
}

func TestBatcher_CoalescesChanges(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]change
	b := NewBatcher(20*time.Millisecond, func(changes []change, _ map[string]string) {
		mu.Lock()
		defer mu.Unlock()
		flushed = append(flushed, changes)
	})

	b.Add("a.go", events.FileChangeCreated)
	b.Add("a.go", events.FileChangeModified)
	b.Add("b.go", events.FileChangeModified)
	b.Add("b.go", events.FileChangeDeleted)

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 1 {
		t.Fatalf("flush count = %d, want 1", len(flushed))
	}
	batch := flushed[0]
	if len(batch) != 2 {
		t.Fatalf("batch = %+v, want 2 entries", batch)
	}
	if batch[0].Path != "a.go" || batch[0].Type != events.FileChangeCreated {
		t.Errorf("batch[0] = %+v, want a.go created", batch[0])
	}
	if batch[1].Path != "b.go" || batch[1].Type != events.FileChangeDeleted {
		t.Errorf("batch[1] = %+v, want b.go deleted", batch[1])
	}
}

func TestBatcher_StopDropsPending(t *testing.T) {
	called := make(chan struct{}, 1)
	b := NewBatcher(20*time.Millisecond, func([]change, map[string]string) {
		called <- struct{}{}
	})

	b.Add("a.go", events.FileChangeModified)
	b.Stop()
	b.Add("b.go", events.FileChangeModified)

	select {
	case <-called:
		t.Error("flush should not run after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMergeChangeTypes(t *testing.T) {
	tests := []struct {
		existing, next, want events.FileChangeType
	}{
		{events.FileChangeCreated, events.FileChangeModified, events.FileChangeCreated},
		{events.FileChangeModified, events.FileChangeDeleted, events.FileChangeDeleted},
		{events.FileChangeCreated, events.FileChangeDeleted, events.FileChangeDeleted},
		{events.FileChangeModified, events.FileChangeModified, events.FileChangeModified},
	}
	for _, tt := range tests {
		if got := mergeChangeTypes(tt.existing, tt.next); got != tt.want {
			t.Errorf("mergeChangeTypes(%s, %s) = %s, want %s", tt.existing, tt.next, got, tt.want)
		}
	}
}
