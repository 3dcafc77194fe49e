// Package app orchestrates all components of codexdesk.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/brianly1003/codexdesk/internal/adapters/codex"
	"github.com/brianly1003/codexdesk/internal/adapters/settings"
	"github.com/brianly1003/codexdesk/internal/adapters/watcher"
	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/hub"
	"github.com/brianly1003/codexdesk/internal/pairing"
	httpserver "github.com/brianly1003/codexdesk/internal/server/http"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/rs/zerolog/log"
)

// App is the main application struct that orchestrates all components.
type App struct {
	cfg     *config.Config
	version string

	// Core components
	hub         *hub.Hub
	gateway     ports.Gateway
	store       *settings.Store
	fileWatcher *watcher.Watcher
	controller  *session.Controller
	adapter     *session.Adapter
	httpServer  *httpserver.Server
	qrGenerator *pairing.QRGenerator
	logger      *slog.Logger

	// Project selected on startup, overriding the persisted one.
	initialProject string

	startTime time.Time

	// Lifecycle
	mu      sync.Mutex
	started bool
	closed  bool
}

// Option customizes an App.
type Option func(*App)

// WithGateway replaces the codex gateway built from configuration.
func WithGateway(gw ports.Gateway) Option {
	return func(a *App) {
		a.gateway = gw
	}
}

// WithLogger sets the slog logger used by the HTTP server.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithProject selects a project directory once the controller starts.
func WithProject(path string) Option {
	return func(a *App) {
		a.initialProject = path
	}
}

// New creates a new App instance. Nothing runs until Init.
func New(cfg *config.Config, version string, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	a := &App{
		cfg:     cfg,
		version: version,
		hub:     hub.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.gateway == nil {
		a.gateway = codex.NewGateway(cfg.Codex.Command, cfg.Codex.Args, cfg.Codex.TimeoutMinutes, a.hub)
	}
	if a.logger == nil {
		a.logger = NewLogger(io.Discard, cfg.Logging.Level)
	}

	return a, nil
}

// Init starts the hub, opens the settings store and starts the session
// controller with its event adapter. It then runs the installation check.
func (a *App) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("application is closed")
	}
	if a.started {
		return fmt.Errorf("application is already running")
	}

	if err := a.hub.Start(); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	a.hub.Subscribe(hub.NewLogSubscriber("internal-logger", func(event events.Event) {
		log.Trace().
			Str("event_type", string(event.Type())).
			Str("generation_id", event.GetGenerationID()).
			Msg("event broadcast")
	}))

	store, err := settings.Open(a.cfg.State.DBPath())
	if err != nil {
		// The last project path is a convenience; run without it.
		log.Warn().Err(err).Str("path", a.cfg.State.DBPath()).Msg("settings store unavailable")
	} else {
		a.store = store
	}

	opts := session.Options{
		Gateway:       a.gateway,
		Hub:           a.hub,
		ContextWindow: a.cfg.Session.ContextWindow,
		Labels: session.Labels{
			User:      a.cfg.Session.UserLabel,
			Assistant: a.cfg.Session.AssistantLabel,
		},
	}
	if a.store != nil {
		opts.Store = a.store
	}
	if a.cfg.Watcher.Enabled {
		a.fileWatcher = watcher.NewWatcher(a.hub, a.cfg.Watcher.DebounceMS, a.cfg.Watcher.IgnorePatterns)
		opts.Watcher = a.fileWatcher
	}

	a.controller = session.NewController(opts)
	if err := a.controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session controller: %w", err)
	}

	a.adapter = session.NewAdapter(a.hub, a.controller)
	a.adapter.Start()

	a.started = true
	a.startTime = time.Now()

	if a.initialProject != "" {
		if err := a.controller.SetProjectContext(a.initialProject); err != nil {
			return fmt.Errorf("failed to select project %q: %w", a.initialProject, err)
		}
	}

	status := a.controller.CheckInstallation(ctx)
	log.Info().
		Bool("installed", status.Installed).
		Str("version", status.Version).
		Str("project", a.controller.ProjectPath()).
		Msg("codexdesk initialized")

	return nil
}

// StartServer starts the HTTP/WebSocket server. Init must have run.
func (a *App) StartServer() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return fmt.Errorf("application is not initialized")
	}
	if a.httpServer != nil {
		return nil
	}

	a.qrGenerator = pairing.NewQRGenerator(a.cfg.Server.Host, a.cfg.Server.Port)
	if a.cfg.Server.ExternalURL != "" {
		a.qrGenerator.SetExternalURL(a.cfg.Server.ExternalURL)
	}
	if project := a.controller.ProjectPath(); project != "" {
		a.qrGenerator.SetProject(filepath.Base(project))
	}

	srv := httpserver.New(a.cfg.Server.Host, a.cfg.Server.Port, a.controller, a.hub, a.logger)
	srv.SetPairing(a.qrGenerator)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	a.httpServer = srv

	return nil
}

// Run initializes the app, serves HTTP and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context, out io.Writer) error {
	if err := a.Init(ctx); err != nil {
		_ = a.Shutdown()
		return err
	}
	if err := a.StartServer(); err != nil {
		_ = a.Shutdown()
		return err
	}

	a.PrintConnectionInfo(out)

	<-ctx.Done()

	return a.Shutdown()
}

// Shutdown performs graceful shutdown of all components. Repeat calls
// are no-ops.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	if !a.started {
		return nil
	}

	log.Info().Msg("shutting down...")

	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error stopping HTTP server")
		}
		cancel()
	}

	// Close abandons any generation and drains the queued gateway stop.
	if err := a.controller.Close(); err != nil {
		log.Error().Err(err).Msg("error stopping session controller")
	}
	a.adapter.Stop()

	if a.fileWatcher != nil {
		if err := a.fileWatcher.Stop(); err != nil {
			log.Error().Err(err).Msg("error stopping file watcher")
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Error().Err(err).Msg("error closing settings store")
		}
	}

	if err := a.hub.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping event hub")
	}

	return nil
}

// Controller returns the session controller. Valid after Init.
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Hub returns the event hub.
func (a *App) Hub() *hub.Hub {
	return a.hub
}

// Config returns the configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Version returns the application version.
func (a *App) Version() string {
	return a.version
}

// ServerAddr returns the bound HTTP address, or "" when not serving.
func (a *App) ServerAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.httpServer == nil {
		return ""
	}
	return a.httpServer.Addr()
}

// QRGenerator returns the pairing QR generator, or nil when not serving.
func (a *App) QRGenerator() *pairing.QRGenerator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.qrGenerator
}

// UptimeSeconds returns how long the app has been running.
func (a *App) UptimeSeconds() int64 {
	if a.startTime.IsZero() {
		return 0
	}
	return int64(time.Since(a.startTime).Seconds())
}
