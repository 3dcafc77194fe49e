// Package codex implements the process gateway for the codex CLI.
package codex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/rs/zerolog/log"
)

// DefaultArgs are the arguments placed before -C <path> <prompt>.
var DefaultArgs = []string{"exec", "--sandbox", "workspace-write", "--skip-git-repo-check"}

// Gateway spawns one codex process per generation and publishes its
// output on the event hub.
type Gateway struct {
	command string
	args    []string
	timeout time.Duration
	hub     ports.EventHub

	mu     sync.Mutex
	active *run
}

// run is a single spawned codex process.
type run struct {
	generationID string
	cmd          *exec.Cmd
	cancel       context.CancelFunc
	stopped      bool
}

// NewGateway creates a codex gateway. A zero timeout disables the run deadline.
func NewGateway(command string, args []string, timeoutMinutes int, hub ports.EventHub) *Gateway {
	if command == "" {
		command = "codex"
	}
	if args == nil {
		args = DefaultArgs
	}
	return &Gateway{
		command: command,
		args:    args,
		timeout: time.Duration(timeoutMinutes) * time.Minute,
		hub:     hub,
	}
}

// CheckInstalled runs `<command> --version`.
func (g *Gateway) CheckInstalled(ctx context.Context) ports.InstallStatus {
	out, err := exec.CommandContext(ctx, g.command, "--version").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ports.InstallStatus{Error: "codex command failed"}
		}
		return ports.InstallStatus{Error: fmt.Sprintf("codex not found: %v", err)}
	}
	return ports.InstallStatus{
		Installed: true,
		Version:   strings.TrimSpace(string(out)),
	}
}

// Start spawns codex for the request. Any run still in flight is stopped
// first and will not publish a completion.
func (g *Gateway) Start(ctx context.Context, req ports.StartRequest) error {
	if req.Message == "" {
		return domain.ErrEmptyMessage
	}
	if req.ProjectPath == "" {
		return domain.ErrNoProject
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		log.Info().
			Str("generation_id", g.active.generationID).
			Msg("preempting running codex process")
		g.stopLocked(g.active)
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if g.timeout > 0 {
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	} else {
		runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}

	args := append(append([]string{}, g.args...), "-C", req.ProjectPath, BuildPrompt(req.Context, req.Message))
	cmd := exec.CommandContext(runCtx, g.command, args...)
	g.setupProcess(cmd)
	cmd.Cancel = func() error { return terminateProcess(cmd) }
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return domain.NewCodexError("spawn", err, 0)
	}

	r := &run{
		generationID: req.GenerationID,
		cmd:          cmd,
		cancel:       cancel,
	}
	g.active = r

	log.Info().
		Str("generation_id", r.generationID).
		Str("project", req.ProjectPath).
		Int("context_lines", len(req.Context)).
		Int("pid", cmd.Process.Pid).
		Msg("codex started")

	g.publish(events.NewCodexRunningEvent(r.generationID, cmd.Process.Pid))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g.streamOutput(r, stdout, events.StreamStdout)
	}()
	go func() {
		defer wg.Done()
		g.streamOutput(r, stderr, events.StreamStderr)
	}()

	go g.wait(r, runCtx, &wg)

	return nil
}

// wait reaps the process once both streams are drained and publishes
// the outcome.
func (g *Gateway) wait(r *run, runCtx context.Context, wg *sync.WaitGroup) {
	wg.Wait()
	err := r.cmd.Wait()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	g.mu.Lock()
	stopped := r.stopped
	if g.active == r {
		g.active = nil
	}
	g.mu.Unlock()
	r.cancel()

	switch {
	case stopped:
		g.publish(events.NewCodexStoppedEvent(r.generationID, exitCode))
		log.Info().Str("generation_id", r.generationID).Int("exit_code", exitCode).Msg("codex stopped")
		return
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		g.publish(events.NewCodexFailedEvent(r.generationID, "timeout exceeded", exitCode))
		log.Warn().Str("generation_id", r.generationID).Msg("codex timed out")
	case exitCode != 0:
		g.publish(events.NewCodexFailedEvent(r.generationID, fmt.Sprintf("exit code %d", exitCode), exitCode))
		log.Warn().Str("generation_id", r.generationID).Int("exit_code", exitCode).Msg("codex exited with error")
	default:
		log.Info().Str("generation_id", r.generationID).Msg("codex completed successfully")
	}

	g.publish(events.NewCodexCompleteEvent(r.generationID, exitCode))
}

// Stop terminates the active run. The run publishes a stopped status and
// no completion.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil {
		return domain.ErrCodexNotRunning
	}
	log.Info().Str("generation_id", g.active.generationID).Msg("stopping codex")
	g.stopLocked(g.active)
	return nil
}

// stopLocked marks r stopped, detaches it and signals its process group.
// Caller must hold g.mu.
func (g *Gateway) stopLocked(r *run) {
	r.stopped = true
	if g.active == r {
		g.active = nil
	}
	r.cancel()
}

// IsRunning reports whether a codex process is active.
func (g *Gateway) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active != nil
}

// streamOutput reads lines from pipe and publishes them for r's generation.
func (g *Gateway) streamOutput(r *run, pipe io.Reader, stream events.StreamType) {
	scanner := bufio.NewScanner(pipe)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineCount++

		g.mu.Lock()
		stopped := r.stopped
		g.mu.Unlock()
		if stopped {
			continue
		}

		if stream == events.StreamStdout {
			g.publish(events.NewCodexOutputEvent(r.generationID, line))
		} else {
			g.publish(events.NewCodexErrorEvent(r.generationID, line))
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Str("stream", string(stream)).Msg("error reading codex output")
	}

	log.Debug().
		Str("stream", string(stream)).
		Int("lines_read", lineCount).
		Msg("codex stream finished")
}

func (g *Gateway) publish(e events.Event) {
	if g.hub == nil {
		return
	}
	if err := g.hub.PublishWait(context.Background(), e); err != nil {
		log.Debug().Err(err).Str("event", string(e.Type())).Msg("dropped codex event")
	}
}

// Ensure Gateway implements ports.Gateway.
var _ ports.Gateway = (*Gateway)(nil)
