package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/session"
)

type fakeChatController struct {
	snap     session.Snapshot
	sendErr  error
	onSend   func()
	sent     []string
	stops    int
	projects []string
	checks   int
}

func (f *fakeChatController) SendMessage(text string) error {
	f.sent = append(f.sent, text)
	if f.sendErr == nil && f.onSend != nil {
		f.snap.State = session.StateGenerating
		f.snap.GenerationID = fmt.Sprintf("g%d", len(f.sent))
		f.onSend()
	}
	return f.sendErr
}

func (f *fakeChatController) StopGeneration() error {
	f.stops++
	f.snap.State = session.StateIdle
	return nil
}

func (f *fakeChatController) SetProjectContext(path string) error {
	f.projects = append(f.projects, path)
	f.snap.ProjectPath = path
	return nil
}

func (f *fakeChatController) CheckInstallation(ctx context.Context) ports.InstallStatus {
	f.checks++
	status := ports.InstallStatus{Installed: true, Version: "0.5.0"}
	f.snap.Install = &status
	return status
}

func (f *fakeChatController) Snapshot() session.Snapshot {
	return f.snap
}

func newTestREPL(ctrl *fakeChatController) (*chatREPL, *bytes.Buffer) {
	var buf bytes.Buffer
	return &chatREPL{ctrl: ctrl, out: &buf, ctx: context.Background()}, &buf
}

func TestChatREPL_SendsPlainText(t *testing.T) {
	ctrl := &fakeChatController{}
	repl, out := newTestREPL(ctrl)

	if quit := repl.handleLine("  explain main.go  "); quit {
		t.Fatal("plain text should not quit")
	}
	if len(ctrl.sent) != 1 || ctrl.sent[0] != "explain main.go" {
		t.Fatalf("sent = %v", ctrl.sent)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}

	repl.handleLine("   ")
	if len(ctrl.sent) != 1 {
		t.Error("blank line should not be sent")
	}
}

func TestChatREPL_SendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "no project", err: domain.ErrNoProject, want: "/project <path>"},
		{name: "busy", err: domain.ErrGenerationActive, want: "/stop"},
		{name: "not installed", err: domain.ErrCodexNotInstalled, want: "npm i -g @openai/codex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeChatController{sendErr: tt.err}
			ctrl.snap.Install = &ports.InstallStatus{Error: "codex not found"}
			repl, out := newTestREPL(ctrl)

			repl.handleLine("hello")
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q should contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestChatREPL_Commands(t *testing.T) {
	ctrl := &fakeChatController{}
	repl, out := newTestREPL(ctrl)

	dir := t.TempDir()
	repl.handleLine("/project " + dir)
	if len(ctrl.projects) != 1 || ctrl.projects[0] != dir {
		t.Fatalf("projects = %v", ctrl.projects)
	}

	repl.handleLine("/stop")
	if ctrl.stops != 0 {
		t.Error("stop while idle should not reach the controller")
	}
	ctrl.snap.State = session.StateGenerating
	repl.handleLine("/stop")
	if ctrl.stops != 1 {
		t.Errorf("stops = %d, want 1", ctrl.stops)
	}

	repl.handleLine("/check")
	if ctrl.checks != 1 {
		t.Errorf("checks = %d, want 1", ctrl.checks)
	}

	ctrl.snap.Transcript = []session.Turn{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}
	repl.handleLine("/history")
	repl.handleLine("/status")
	repl.handleLine("/bogus")

	for _, want := range []string{"Project: " + dir, "[stopped]", "0.5.0", "[you] hi", "[codex] hello", "Turns:   2", "Unknown command /bogus"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if !repl.handleLine("/quit") {
		t.Error("/quit should quit")
	}
}

func TestEventRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := newEventRenderer(&buf)

	generating := session.Snapshot{State: session.StateGenerating, ProjectPath: "/p", GenerationID: "g1"}
	if snap, ok := r.render(events.NewSessionUpdatedEvent("g1", generating)); !ok || !snap.IsGenerating() {
		t.Fatal("session_updated should return its snapshot")
	}
	if _, ok := r.render(events.NewAssistantDeltaEvent("g1", "line one\n")); ok {
		t.Error("assistant_delta carries no snapshot")
	}
	if r.hasEnded("g1") {
		t.Fatal("g1 is still running")
	}

	failed := session.Snapshot{
		State: session.StateIdle,
		Transcript: []session.Turn{
			{Role: session.RoleUser, Content: "hi"},
			{Role: session.RoleAssistant, Content: "Error: spawn failed"},
		},
	}
	r.render(events.NewSessionUpdatedEvent("", failed))

	if got := buf.String(); got != "line one\nError: spawn failed\n" {
		t.Errorf("output = %q", got)
	}
	if !r.hasEnded("g1") {
		t.Error("end of generation should be recorded")
	}
}

func TestEventRenderer_GenerationReplacedWithoutIdle(t *testing.T) {
	r := newEventRenderer(&bytes.Buffer{})

	r.render(events.NewSessionUpdatedEvent("g1", session.Snapshot{State: session.StateGenerating, GenerationID: "g1"}))
	r.render(events.NewSessionUpdatedEvent("g2", session.Snapshot{State: session.StateGenerating, GenerationID: "g2"}))

	if !r.hasEnded("g1") {
		t.Error("g1 should end when g2 takes over")
	}
	if r.hasEnded("g2") {
		t.Error("g2 is still running")
	}
}

func TestEventRenderer_WaitEndedIgnoresEarlierGenerations(t *testing.T) {
	r := newEventRenderer(&bytes.Buffer{})
	idle := session.Snapshot{State: session.StateIdle}

	// g1 finishes before anyone waits for g2.
	r.render(events.NewSessionUpdatedEvent("g1", session.Snapshot{State: session.StateGenerating, GenerationID: "g1"}))
	r.render(events.NewSessionUpdatedEvent("", idle))

	waited := make(chan error, 1)
	go func() { waited <- r.waitEnded(context.Background(), "g2") }()

	select {
	case err := <-waited:
		t.Fatalf("waitEnded(g2) returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	r.render(events.NewSessionUpdatedEvent("g2", session.Snapshot{State: session.StateGenerating, GenerationID: "g2"}))
	r.render(events.NewSessionUpdatedEvent("", idle))

	select {
	case err := <-waited:
		if err != nil {
			t.Errorf("waitEnded(g2) error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitEnded(g2) never returned")
	}
}

func TestRunChatPiped(t *testing.T) {
	var buf syncBuffer
	r := newEventRenderer(&buf)
	ctrl := &fakeChatController{}
	ctrl.snap.ProjectPath = "/p"
	ctrl.onSend = func() {
		gen := ctrl.snap.GenerationID
		generating := session.Snapshot{State: session.StateGenerating, ProjectPath: "/p", GenerationID: gen}
		done := session.Snapshot{State: session.StateIdle, ProjectPath: "/p"}
		go func() {
			r.render(events.NewSessionUpdatedEvent(gen, generating))
			r.render(events.NewAssistantDeltaEvent(gen, "answer to "+gen+"\n"))
			r.render(events.NewSessionUpdatedEvent("", done))
		}()
	}
	repl := &chatREPL{ctrl: ctrl, out: &buf, ctx: context.Background()}

	in := strings.NewReader("first question\nsecond question\n/quit\nnever sent\n")
	if err := runChatPiped(context.Background(), repl, r, in); err != nil {
		t.Fatalf("runChatPiped() error = %v", err)
	}

	if len(ctrl.sent) != 2 || ctrl.sent[0] != "first question" || ctrl.sent[1] != "second question" {
		t.Fatalf("sent = %v", ctrl.sent)
	}
	out := buf.String()
	first, second := strings.Index(out, "answer to g1"), strings.Index(out, "answer to g2")
	if first < 0 || second < 0 || first > second {
		t.Errorf("output %q should hold both answers in order", out)
	}
}

func TestRunChatPiped_CancelStops(t *testing.T) {
	var buf bytes.Buffer
	r := newEventRenderer(&buf)
	ctrl := &fakeChatController{onSend: func() {}}
	repl := &chatREPL{ctrl: ctrl, out: &buf, ctx: context.Background()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runChatPiped(ctx, repl, r, strings.NewReader("hello\n")); err != nil {
		t.Fatalf("runChatPiped() error = %v", err)
	}
	if ctrl.stops != 1 {
		t.Errorf("stops = %d, want 1", ctrl.stops)
	}
}

// syncBuffer is a bytes.Buffer safe for the renderer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestChatPrompt(t *testing.T) {
	if got := chatPrompt(session.Snapshot{}); got != "(no project) > " {
		t.Errorf("prompt = %q", got)
	}
	snap := session.Snapshot{ProjectPath: "/home/me/app", State: session.StateGenerating}
	if got := chatPrompt(snap); got != "(app) ... " {
		t.Errorf("prompt = %q", got)
	}
}
