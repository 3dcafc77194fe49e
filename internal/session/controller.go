package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options configures a Controller. Gateway is required.
type Options struct {
	Gateway ports.Gateway
	Hub     ports.EventHub
	Store   ports.SettingsStore
	Watcher ports.FileWatcher

	// ContextWindow is the number of prior turns sent with each message.
	ContextWindow int
	Labels        Labels
}

// Controller owns the session state. All state is confined to one loop
// goroutine; intents and gateway events are posted to it as steps and
// each step runs to completion before the next. Gateway and store calls
// are queued to a dispatcher and never run inside a step.
type Controller struct {
	gateway       ports.Gateway
	hub           ports.EventHub
	store         ports.SettingsStore
	watcher       ports.FileWatcher
	contextWindow int
	labels        Labels

	steps    chan func()
	quit     chan struct{}
	loopDone chan struct{}
	dispatch *dispatcher
	ctx      context.Context
	cancel   context.CancelFunc

	running   atomic.Bool
	lifecycle sync.Mutex
	started   bool
	closed    bool

	// Loop-owned state. Read directly only when the loop is not running,
	// under lifecycle.
	transcript   []Turn
	pending      *strings.Builder
	state        State
	generationID string
	projectPath  string
	install      *ports.InstallStatus
}

// NewController creates a controller. Call Start before posting intents.
func NewController(opts Options) *Controller {
	window := opts.ContextWindow
	if window <= 0 {
		window = DefaultContextWindow
	}
	labels := opts.Labels
	if labels.User == "" {
		labels.User = DefaultLabels.User
	}
	if labels.Assistant == "" {
		labels.Assistant = DefaultLabels.Assistant
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		gateway:       opts.Gateway,
		hub:           opts.Hub,
		store:         opts.Store,
		watcher:       opts.Watcher,
		contextWindow: window,
		labels:        labels,
		steps:         make(chan func()),
		quit:          make(chan struct{}),
		loopDone:      make(chan struct{}),
		dispatch:      newDispatcher(),
		ctx:           ctx,
		cancel:        cancel,
		state:         StateIdle,
	}
}

// Start restores the last project path and launches the loop.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return domain.ErrControllerClosed
	}
	if c.started {
		return nil
	}

	if c.store != nil {
		path, err := c.store.LastProjectPath(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("failed to load last project path")
		case path == "":
		case !isDir(path):
			log.Warn().Str("path", path).Msg("last project path no longer exists, ignoring")
		default:
			c.projectPath = path
			log.Info().Str("path", path).Msg("restored last project")
		}
	}

	c.started = true
	go c.loop()
	go c.dispatch.run(c.ctx)
	c.running.Store(true)

	if c.projectPath != "" {
		c.enqueueWatch(c.projectPath)
	}

	log.Info().Int("context_window", c.contextWindow).Msg("session controller started")
	return nil
}

// Close stops the loop, abandoning any generation, and waits for queued
// gateway calls to finish. Repeat calls are no-ops.
func (c *Controller) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if !c.started {
		c.cancel()
		return nil
	}

	_ = c.do(func() {
		if c.state == StateGenerating {
			log.Info().Str("generation_id", c.generationID).Msg("abandoning generation on shutdown")
			c.abandon()
		}
	})

	c.running.Store(false)
	close(c.quit)
	<-c.loopDone
	c.dispatch.close()
	c.cancel()

	log.Info().Msg("session controller stopped")
	return nil
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case step := <-c.steps:
			step()
		case <-c.quit:
			return
		}
	}
}

// do posts fn to the loop and waits until it has run.
func (c *Controller) do(fn func()) error {
	if !c.running.Load() {
		return domain.ErrControllerClosed
	}

	done := make(chan struct{})
	step := func() {
		fn()
		close(done)
	}

	select {
	case c.steps <- step:
	case <-c.loopDone:
		return domain.ErrControllerClosed
	}
	<-done
	return nil
}

// view runs fn on the loop, or directly when the loop is not running.
func (c *Controller) view(fn func()) {
	if err := c.do(fn); err == nil {
		return
	}
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	fn()
}

// SendMessage appends a user turn and starts a generation.
func (c *Controller) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyMessage
	}

	var result error
	if err := c.do(func() { result = c.sendMessage(text) }); err != nil {
		return err
	}
	return result
}

func (c *Controller) sendMessage(text string) error {
	switch {
	case c.install == nil || !c.install.Installed:
		return domain.ErrCodexNotInstalled
	case c.projectPath == "":
		return domain.ErrNoProject
	case c.state == StateGenerating:
		return domain.ErrGenerationActive
	}

	window := ContextWindow(c.transcript, c.contextWindow, c.labels)
	c.transcript = append(c.transcript, newTurn(RoleUser, text))
	c.pending = &strings.Builder{}
	c.generationID = uuid.NewString()

	req := ports.StartRequest{
		GenerationID: c.generationID,
		Message:      text,
		ProjectPath:  c.projectPath,
		Context:      window,
	}
	c.dispatch.enqueue("start", func(ctx context.Context) {
		if err := c.gateway.Start(ctx, req); err != nil {
			_ = c.do(func() { c.startFailed(req.GenerationID, err) })
		}
	})

	c.state = StateGenerating

	log.Info().
		Str("generation_id", c.generationID).
		Int("context_lines", len(window)).
		Msg("generation started")

	c.publishSnapshot()
	return nil
}

func (c *Controller) startFailed(generationID string, err error) {
	if c.state != StateGenerating || c.generationID != generationID {
		log.Debug().Err(err).Str("generation_id", generationID).Msg("ignoring start failure for inactive generation")
		return
	}

	log.Error().Err(err).Str("generation_id", generationID).Msg("failed to start codex")

	c.transcript = append(c.transcript, newTurn(RoleAssistant, "Error: "+err.Error()))
	c.reset()
	c.publishSnapshot()
}

// OnOutput appends a line of assistant output to the pending turn.
func (c *Controller) OnOutput(generationID, chunk string) {
	_ = c.do(func() {
		if !c.isActive(generationID) {
			return
		}
		c.pending.WriteString(chunk)
		c.pending.WriteByte('\n')
		c.publish(events.NewAssistantDeltaEvent(generationID, chunk+"\n"))
	})
}

// OnError records a diagnostic line. It never changes the session.
func (c *Controller) OnError(generationID, chunk string) {
	log.Warn().
		Str("generation_id", generationID).
		Str("line", chunk).
		Msg("codex stderr")
}

// OnComplete finalizes the pending turn and returns to idle.
func (c *Controller) OnComplete(generationID string) {
	_ = c.do(func() {
		if !c.isActive(generationID) {
			log.Debug().Str("generation_id", generationID).Msg("ignoring completion for inactive generation")
			return
		}

		content := strings.TrimSpace(c.pending.String())
		if content != "" {
			c.transcript = append(c.transcript, newTurn(RoleAssistant, content))
		}
		c.reset()

		log.Info().
			Str("generation_id", generationID).
			Bool("empty", content == "").
			Msg("generation completed")

		c.publishSnapshot()
	})
}

// StopGeneration cancels the active generation and discards its output.
// It is a no-op when idle and always succeeds.
func (c *Controller) StopGeneration() error {
	_ = c.do(func() {
		if c.state != StateGenerating {
			return
		}
		log.Info().Str("generation_id", c.generationID).Msg("generation stopped by user")
		c.abandon()
		c.publishSnapshot()
	})
	return nil
}

// SetProjectContext selects a new project folder, abandoning any active
// generation and clearing the transcript. An empty path clears the
// selection; otherwise path must be an existing directory.
func (c *Controller) SetProjectContext(path string) error {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidProjectPath, err)
		}
		if !isDir(abs) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidProjectPath, path)
		}
		path = abs
	}

	return c.do(func() {
		if c.state == StateGenerating {
			log.Info().Str("generation_id", c.generationID).Msg("abandoning generation for project change")
			c.abandon()
		}
		c.transcript = nil
		c.projectPath = path

		if c.store != nil {
			c.dispatch.enqueue("persist_project", func(ctx context.Context) {
				if err := c.store.SetLastProjectPath(ctx, path); err != nil {
					log.Error().Err(err).Msg("failed to persist project path")
				}
			})
		}
		c.enqueueWatch(path)

		log.Info().Str("path", path).Msg("project selected")
		c.publishSnapshot()
	})
}

// CheckInstallation queries the gateway and records the result. It may be
// called again to clear a not-installed advisory.
func (c *Controller) CheckInstallation(ctx context.Context) ports.InstallStatus {
	status := c.gateway.CheckInstalled(ctx)
	if status.Installed {
		log.Info().Str("version", status.Version).Msg("codex detected")
	} else {
		log.Warn().Str("error", status.Error).Msg(InstallAdvisory)
	}

	c.view(func() {
		s := status
		c.install = &s
		c.publishSnapshot()
	})
	return status
}

// Snapshot returns a copy of the session for presentation.
func (c *Controller) Snapshot() Snapshot {
	var snap Snapshot
	c.view(func() { snap = c.snapshot() })
	return snap
}

// Transcript returns a copy of the finalized turns.
func (c *Controller) Transcript() []Turn {
	var turns []Turn
	c.view(func() { turns = append([]Turn(nil), c.transcript...) })
	return turns
}

// State returns the generation state.
func (c *Controller) State() State {
	var s State
	c.view(func() { s = c.state })
	return s
}

// PendingText returns the streamed text of the in-flight response.
func (c *Controller) PendingText() string {
	var text string
	c.view(func() {
		if c.pending != nil {
			text = c.pending.String()
		}
	})
	return text
}

// InstallStatus returns the last installation check, or nil if none ran.
func (c *Controller) InstallStatus() *ports.InstallStatus {
	var status *ports.InstallStatus
	c.view(func() {
		if c.install != nil {
			s := *c.install
			status = &s
		}
	})
	return status
}

// ProjectPath returns the selected project folder, or "".
func (c *Controller) ProjectPath() string {
	var path string
	c.view(func() { path = c.projectPath })
	return path
}

// abandon discards the pending turn, returns to idle and queues a
// best-effort gateway stop.
func (c *Controller) abandon() {
	generationID := c.generationID
	c.reset()
	c.dispatch.enqueue("stop", func(ctx context.Context) {
		if err := c.gateway.Stop(ctx); err != nil && !errors.Is(err, domain.ErrCodexNotRunning) {
			log.Warn().Err(err).Str("generation_id", generationID).Msg("failed to stop codex")
		}
	})
}

func (c *Controller) reset() {
	c.pending = nil
	c.generationID = ""
	c.state = StateIdle
}

func (c *Controller) isActive(generationID string) bool {
	return c.state == StateGenerating && c.generationID == generationID
}

func (c *Controller) enqueueWatch(path string) {
	if c.watcher == nil {
		return
	}
	c.dispatch.enqueue("watch_project", func(ctx context.Context) {
		if err := c.watcher.Watch(ctx, path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to watch project")
		}
	})
}

func (c *Controller) snapshot() Snapshot {
	snap := Snapshot{
		ProjectPath:  c.projectPath,
		State:        c.state,
		GenerationID: c.generationID,
		Transcript:   append([]Turn{}, c.transcript...),
	}
	if c.pending != nil {
		snap.PendingText = c.pending.String()
	}
	if c.install != nil {
		s := *c.install
		snap.Install = &s
	}
	return snap
}

func (c *Controller) publishSnapshot() {
	c.publish(events.NewSessionUpdatedEvent(c.generationID, c.snapshot()))
}

// publish waits for room in the hub queue so no delta or snapshot is lost.
// The hub loop never calls back into the controller.
func (c *Controller) publish(e events.Event) {
	if c.hub == nil {
		return
	}
	if err := c.hub.PublishWait(c.ctx, e); err != nil {
		log.Debug().Err(err).Str("event_type", string(e.Type())).Msg("event not published")
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
