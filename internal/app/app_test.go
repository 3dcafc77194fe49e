package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianly1003/codexdesk/internal/adapters/settings"
	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/brianly1003/codexdesk/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Codex:   config.CodexConfig{Command: "codex", Args: config.DefaultCodexArgs, TimeoutMinutes: 1},
		Session: config.SessionConfig{ContextWindow: 6, UserLabel: "User", AssistantLabel: "Codex"},
		Watcher: config.WatcherConfig{Enabled: false, DebounceMS: 50},
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
		State:   config.StateConfig{Dir: t.TempDir()},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, gw *testutil.MockGateway) *App {
	t.Helper()
	a, err := New(cfg, "1.0.0", WithGateway(gw))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func waitCall(t *testing.T, gw *testutil.MockGateway, want string) {
	t.Helper()
	select {
	case got := <-gw.Calls:
		if got != want {
			t.Fatalf("gateway call = %s, want %s", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for gateway %s", want)
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, "1.0.0")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if a.Config() != cfg {
		t.Error("config not set correctly")
	}
	if a.Version() != "1.0.0" {
		t.Errorf("version = %s, want 1.0.0", a.Version())
	}
	if a.Hub() == nil {
		t.Error("hub should be initialized")
	}
	if a.gateway == nil {
		t.Error("gateway should be built from config")
	}
	if a.UptimeSeconds() != 0 {
		t.Error("uptime should be zero before Init")
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "1.0.0"); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestApp_InitChecksInstallation(t *testing.T) {
	gw := testutil.NewMockGateway()
	gw.SetInstallStatus(ports.InstallStatus{Installed: false, Error: "codex not found: exec: not found"})
	a := newTestApp(t, testConfig(t), gw)

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	status := a.Controller().InstallStatus()
	if status == nil || status.Installed {
		t.Fatalf("install status = %+v, want not installed", status)
	}
	if gw.CheckCount() != 1 {
		t.Errorf("CheckInstalled calls = %d, want 1", gw.CheckCount())
	}

	if err := a.Init(context.Background()); err == nil {
		t.Error("second Init should fail")
	}
}

func TestApp_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	gw := testutil.NewMockGateway()
	a := newTestApp(t, cfg, gw)

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	ctrl := a.Controller()
	project := t.TempDir()

	if err := ctrl.SetProjectContext(project); err != nil {
		t.Fatalf("SetProjectContext() error = %v", err)
	}
	if err := ctrl.SendMessage("hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	waitCall(t, gw, "start")

	req := gw.StartRequests()[0]
	a.Hub().Publish(events.NewCodexOutputEvent(req.GenerationID, "hello"))
	a.Hub().Publish(events.NewCodexCompleteEvent(req.GenerationID, 0))

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.State() != session.StateIdle && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	transcript := ctrl.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[1].Role != session.RoleAssistant || transcript[1].Content != "hello" {
		t.Errorf("assistant turn = %+v", transcript[1])
	}
}

func TestApp_ShutdownPersistsAndStopsGeneration(t *testing.T) {
	cfg := testConfig(t)
	gw := testutil.NewMockGateway()
	a := newTestApp(t, cfg, gw)

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	project := t.TempDir()
	if err := a.Controller().SetProjectContext(project); err != nil {
		t.Fatalf("SetProjectContext() error = %v", err)
	}
	if err := a.Controller().SendMessage("long task"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	waitCall(t, gw, "start")

	if err := a.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if gw.StopCount() != 1 {
		t.Errorf("Stop calls = %d, want 1", gw.StopCount())
	}
	if err := a.Controller().SendMessage("again"); !errors.Is(err, domain.ErrControllerClosed) {
		t.Errorf("SendMessage after Shutdown = %v, want ErrControllerClosed", err)
	}

	store, err := settings.Open(cfg.State.DBPath())
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	defer store.Close()
	got, err := store.LastProjectPath(context.Background())
	if err != nil {
		t.Fatalf("LastProjectPath() error = %v", err)
	}
	if got != project {
		t.Errorf("persisted project = %q, want %q", got, project)
	}
}

func TestApp_RestoresLastProject(t *testing.T) {
	cfg := testConfig(t)
	project := t.TempDir()

	store, err := settings.Open(cfg.State.DBPath())
	if err != nil {
		t.Fatalf("settings.Open() error = %v", err)
	}
	if err := store.SetLastProjectPath(context.Background(), project); err != nil {
		t.Fatalf("SetLastProjectPath() error = %v", err)
	}
	store.Close()

	a := newTestApp(t, cfg, testutil.NewMockGateway())
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := a.Controller().ProjectPath(); got != project {
		t.Errorf("ProjectPath() = %q, want %q", got, project)
	}
}

func TestApp_WithProject(t *testing.T) {
	cfg := testConfig(t)
	project := t.TempDir()

	a, err := New(cfg, "1.0.0", WithGateway(testutil.NewMockGateway()), WithProject(project))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown() })

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := a.Controller().ProjectPath(); got != project {
		t.Errorf("ProjectPath() = %q, want %q", got, project)
	}
}

func TestApp_WithProjectInvalid(t *testing.T) {
	cfg := testConfig(t)
	missing := filepath.Join(t.TempDir(), "missing")

	a, err := New(cfg, "1.0.0", WithGateway(testutil.NewMockGateway()), WithProject(missing))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown() })

	err = a.Init(context.Background())
	if !errors.Is(err, domain.ErrInvalidProjectPath) {
		t.Fatalf("Init() error = %v, want ErrInvalidProjectPath", err)
	}
}

func TestApp_StartServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pairing.ShowQRInTerminal = true
	a := newTestApp(t, cfg, testutil.NewMockGateway())

	if err := a.StartServer(); err == nil {
		t.Error("StartServer before Init should fail")
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := a.StartServer(); err != nil {
		t.Fatalf("StartServer() error = %v", err)
	}

	resp, err := http.Get("http://" + a.ServerAddr() + "/api/session")
	if err != nil {
		t.Fatalf("GET /api/session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var out bytes.Buffer
	a.PrintConnectionInfo(&out)
	if !strings.Contains(out.String(), "codexdesk ready") {
		t.Errorf("connection info missing banner:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Connect to") {
		t.Error("expected QR code in connection info")
	}
}

func TestApp_WatcherEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watcher.Enabled = true
	a := newTestApp(t, cfg, testutil.NewMockGateway())

	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	project := t.TempDir()
	if err := a.Controller().SetProjectContext(project); err != nil {
		t.Fatalf("SetProjectContext() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for a.fileWatcher.Root() != project && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if a.fileWatcher.Root() != project {
		t.Errorf("watcher root = %q, want %q", a.fileWatcher.Root(), project)
	}
}

func TestApp_ShutdownWithoutInit(t *testing.T) {
	a, _ := New(testConfig(t), "1.0.0", WithGateway(testutil.NewMockGateway()))

	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := a.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if err := a.Init(context.Background()); err == nil {
		t.Error("Init after Shutdown should fail")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a much longer string", 10, "a much ..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn should be logged")
	}
}
