package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/brianly1003/codexdesk/internal/app"
	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/hub"
	"github.com/brianly1003/codexdesk/internal/pairing"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/brianly1003/codexdesk/internal/sync"
)

// version is set by ldflags during build.
var version = "dev"

// Events forwarded to the frontend under their own names.
var forwardedEvents = []events.EventType{
	events.EventTypeSessionUpdated,
	events.EventTypeAssistantDelta,
	events.EventTypeCodexStatus,
	events.EventTypeFileChanged,
}

// DesktopApp binds the session controller to the desktop window.
type DesktopApp struct {
	ctx  context.Context
	core *app.App
	sub  *hub.ChannelSubscriber

	mu      sync.RWMutex
	initErr error
}

// NewDesktopApp creates a new desktop application.
func NewDesktopApp() *DesktopApp {
	return &DesktopApp{}
}

// startup is called when the app starts.
func (d *DesktopApp) startup(ctx context.Context) {
	d.ctx = ctx

	if err := d.start(ctx); err != nil {
		log.Error().Err(err).Msg("desktop startup failed")
		d.mu.Lock()
		d.initErr = err
		d.mu.Unlock()
		runtime.EventsEmit(ctx, "startup_error", err.Error())
		return
	}

	log.Info().Str("version", version).Msg("desktop app started")
}

func (d *DesktopApp) start(ctx context.Context) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	core, err := app.New(cfg, version, app.WithLogger(app.NewLogger(os.Stderr, cfg.Logging.Level)))
	if err != nil {
		return err
	}
	if err := core.Init(ctx); err != nil {
		_ = core.Shutdown()
		return err
	}

	// The window works without the server; it only serves other devices.
	if err := core.StartServer(); err != nil {
		log.Warn().Err(err).Msg("HTTP server not started")
	}

	d.sub = hub.NewChannelSubscriber("desktop-window", 1024)
	core.Hub().Subscribe(hub.NewTypeFilter(d.sub, forwardedEvents...))
	go d.forward(ctx, d.sub, core.Controller())

	d.mu.Lock()
	d.core = core
	d.mu.Unlock()
	return nil
}

// forward emits hub events to the frontend until the subscriber closes.
func (d *DesktopApp) forward(ctx context.Context, sub *hub.ChannelSubscriber, ctrl *session.Controller) {
	var dropped uint64
	for e := range sub.Events() {
		base, ok := e.(*events.BaseEvent)
		if !ok {
			continue
		}
		runtime.EventsEmit(ctx, string(e.Type()), base.Payload)

		// The window fell behind; replace what it missed with the current state.
		if n := sub.Dropped(); n != dropped {
			log.Debug().Uint64("dropped", n-dropped).Msg("desktop window resynced")
			dropped = n
			runtime.EventsEmit(ctx, string(events.EventTypeSessionUpdated), ctrl.Snapshot())
		}
	}
}

// shutdown is called when the app is closing.
func (d *DesktopApp) shutdown(ctx context.Context) {
	log.Info().Msg("shutting down desktop app")

	core := d.getCore()
	if core == nil {
		return
	}
	if d.sub != nil {
		core.Hub().Unsubscribe(d.sub.ID())
	}
	if err := core.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

// domReady is called when the DOM is ready.
func (d *DesktopApp) domReady(ctx context.Context) {
	if core := d.getCore(); core != nil {
		runtime.EventsEmit(ctx, string(events.EventTypeSessionUpdated), core.Controller().Snapshot())
	}
}

func (d *DesktopApp) getCore() *app.App {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.core
}

func (d *DesktopApp) controller() (*session.Controller, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.core == nil {
		if d.initErr != nil {
			return nil, d.initErr
		}
		return nil, fmt.Errorf("application is starting")
	}
	return d.core.Controller(), nil
}

// --- Session ---

// GetSnapshot returns the current session.
func (d *DesktopApp) GetSnapshot() (session.Snapshot, error) {
	ctrl, err := d.controller()
	if err != nil {
		return session.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

// SendMessage sends text to codex for the selected project.
func (d *DesktopApp) SendMessage(text string) error {
	ctrl, err := d.controller()
	if err != nil {
		return err
	}
	return ctrl.SendMessage(text)
}

// StopGeneration stops the running answer.
func (d *DesktopApp) StopGeneration() error {
	ctrl, err := d.controller()
	if err != nil {
		return err
	}
	return ctrl.StopGeneration()
}

// --- Project ---

// SelectProjectFolder opens a native directory picker and selects the
// chosen directory. Cancelling the dialog keeps the current project.
func (d *DesktopApp) SelectProjectFolder() (string, error) {
	ctrl, err := d.controller()
	if err != nil {
		return "", err
	}

	path, err := runtime.OpenDirectoryDialog(d.ctx, runtime.OpenDialogOptions{
		Title:            "Select Project Folder",
		DefaultDirectory: ctrl.ProjectPath(),
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return ctrl.ProjectPath(), nil
	}

	if err := ctrl.SetProjectContext(path); err != nil {
		return "", err
	}
	return ctrl.ProjectPath(), nil
}

// SetProjectPath selects path as the project directory.
func (d *DesktopApp) SetProjectPath(path string) error {
	ctrl, err := d.controller()
	if err != nil {
		return err
	}
	return ctrl.SetProjectContext(path)
}

// --- Installation ---

// CheckInstallation re-runs the codex installation check.
func (d *DesktopApp) CheckInstallation() (ports.InstallStatus, error) {
	ctrl, err := d.controller()
	if err != nil {
		return ports.InstallStatus{}, err
	}
	return ctrl.CheckInstallation(d.ctx), nil
}

// GetInstallAdvisory returns the not-installed advisory, or "".
func (d *DesktopApp) GetInstallAdvisory() string {
	ctrl, err := d.controller()
	if err != nil {
		return ""
	}
	return session.AdvisoryText(ctrl.InstallStatus())
}

// --- Pairing ---

// GetConnectionInfo returns the URLs other devices connect to.
func (d *DesktopApp) GetConnectionInfo() (*pairing.PairingInfo, error) {
	qr, err := d.qrGenerator()
	if err != nil {
		return nil, err
	}
	return qr.GetPairingInfo(), nil
}

// GetConnectionQR returns the pairing QR code as a PNG data URL.
func (d *DesktopApp) GetConnectionQR() (string, error) {
	qr, err := d.qrGenerator()
	if err != nil {
		return "", err
	}

	png, err := qr.GeneratePNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (d *DesktopApp) qrGenerator() (*pairing.QRGenerator, error) {
	core := d.getCore()
	if core == nil {
		return nil, fmt.Errorf("application is starting")
	}
	qr := core.QRGenerator()
	if qr == nil {
		return nil, fmt.Errorf("server is not running")
	}
	return qr, nil
}
