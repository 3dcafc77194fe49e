package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/hub"
	"github.com/brianly1003/codexdesk/internal/session"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const chatHistoryLimit = 500

// chatCmd runs an interactive terminal chat.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with codex in the terminal",
	Long: `Start an interactive chat session in the terminal.

Anything typed that does not start with "/" is sent to codex. The answer
is printed as it streams in.

` + chatHelp,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&projectPath, "project", "", "project directory to select on startup (default: last used)")
}

// chatController is the part of the session controller the REPL drives.
type chatController interface {
	SendMessage(text string) error
	StopGeneration() error
	SetProjectContext(path string) error
	CheckInstallation(ctx context.Context) ports.InstallStatus
	Snapshot() session.Snapshot
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)
	// Keep routine logs out of the conversation.
	if !verbose && zerolog.GlobalLevel() < zerolog.WarnLevel {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	application, err := newApplication(cfg)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	signals := []os.Signal{syscall.SIGTERM}
	if !interactive {
		// readline owns Ctrl-C in interactive mode.
		signals = append(signals, os.Interrupt)
	}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	if err := application.Init(ctx); err != nil {
		_ = application.Shutdown()
		return fmt.Errorf("application error: %w", err)
	}
	defer func() { _ = application.Shutdown() }()

	sub := hub.NewQueueSubscriber("chat-repl")
	application.Hub().Subscribe(hub.NewTypeFilter(sub,
		events.EventTypeAssistantDelta,
		events.EventTypeSessionUpdated,
	))
	defer application.Hub().Unsubscribe(sub.ID())

	if !interactive {
		r := newEventRenderer(os.Stdout)
		go r.consume(sub.Events(), nil)
		repl := &chatREPL{ctrl: application.Controller(), out: os.Stdout, ctx: ctx}
		return runChatPiped(ctx, repl, r, os.Stdin)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            chatPrompt(application.Controller().Snapshot()),
		HistoryFile:       filepath.Join(cfg.State.Dir, "chat_history"),
		HistoryLimit:      chatHistoryLimit,
		AutoComplete:      chatCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "/quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	go newEventRenderer(out).consume(sub.Events(), func(snap session.Snapshot) {
		rl.SetPrompt(chatPrompt(snap))
		rl.Refresh()
	})

	repl := &chatREPL{ctrl: application.Controller(), out: out, ctx: ctx}
	repl.printWelcome(version)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// Ctrl-C stops a running answer instead of leaving.
				if repl.ctrl.Snapshot().IsGenerating() {
					repl.handleLine("/stop")
				} else if len(line) == 0 {
					fmt.Fprintln(out, "Use /quit or Ctrl-D to leave the chat.")
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if repl.handleLine(line) {
			return nil
		}
		rl.SetPrompt(chatPrompt(repl.ctrl.Snapshot()))
	}
}

// runChatPiped reads one line at a time from in and waits for each answer
// to finish before reading the next line.
func runChatPiped(ctx context.Context, repl *chatREPL, r *eventRenderer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if repl.handleLine(scanner.Text()) {
			return nil
		}
		snap := repl.ctrl.Snapshot()
		if !snap.IsGenerating() {
			continue
		}
		if err := r.waitEnded(ctx, snap.GenerationID); err != nil {
			_ = repl.ctrl.StopGeneration()
			return nil
		}
	}
	return scanner.Err()
}

// chatREPL interprets one input line at a time.
type chatREPL struct {
	ctrl chatController
	out  io.Writer
	ctx  context.Context
}

// handleLine runs a command or sends a message. It reports whether the
// user asked to leave.
func (r *chatREPL) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/stop":
		if !r.ctrl.Snapshot().IsGenerating() {
			fmt.Fprintln(r.out, "Nothing is running.")
			return false
		}
		_ = r.ctrl.StopGeneration()
		fmt.Fprintln(r.out, "[stopped]")
	case "/project":
		r.selectProject(arg)
	case "/status":
		r.printStatus()
	case "/history":
		r.printHistory()
	case "/check":
		status := r.ctrl.CheckInstallation(r.ctx)
		if status.Installed {
			fmt.Fprintf(r.out, "codex %s is installed.\n", status.Version)
		} else {
			fmt.Fprint(r.out, session.AdvisoryText(&status))
		}
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for the list.\n", name)
	}
	return false
}

func (r *chatREPL) send(text string) {
	err := r.ctrl.SendMessage(text)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCodexNotInstalled):
		fmt.Fprint(r.out, session.AdvisoryText(r.ctrl.Snapshot().Install))
		fmt.Fprintln(r.out, "Run /check after installing.")
	case errors.Is(err, domain.ErrNoProject):
		fmt.Fprintln(r.out, "Select a project first: /project <path>")
	case errors.Is(err, domain.ErrGenerationActive):
		fmt.Fprintln(r.out, "Wait for the answer to finish or /stop it.")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *chatREPL) selectProject(path string) {
	if path == "" {
		fmt.Fprintln(r.out, "Usage: /project <path>")
		return
	}
	if err := r.ctrl.SetProjectContext(expandUserPath(path)); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Project: %s\n", r.ctrl.Snapshot().ProjectPath)
}

func (r *chatREPL) printStatus() {
	snap := r.ctrl.Snapshot()
	project := snap.ProjectPath
	if project == "" {
		project = "(none)"
	}
	fmt.Fprintf(r.out, "Project: %s\n", project)
	fmt.Fprintf(r.out, "State:   %s\n", snap.State)
	fmt.Fprintf(r.out, "Turns:   %d\n", len(snap.Transcript))
	switch {
	case snap.Install == nil:
		fmt.Fprintln(r.out, "Codex:   not checked")
	case snap.Install.Installed:
		fmt.Fprintf(r.out, "Codex:   %s\n", snap.Install.Version)
	default:
		fmt.Fprintln(r.out, "Codex:   not installed")
	}
}

func (r *chatREPL) printHistory() {
	snap := r.ctrl.Snapshot()
	if len(snap.Transcript) == 0 {
		fmt.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, turn := range snap.Transcript {
		label := "you"
		if turn.Role == session.RoleAssistant {
			label = "codex"
		}
		fmt.Fprintf(r.out, "[%s] %s\n", label, turn.Content)
	}
}

func (r *chatREPL) printWelcome(version string) {
	snap := r.ctrl.Snapshot()
	fmt.Fprintf(r.out, "codexdesk %s. Type /help for commands.\n", version)
	if snap.ProjectPath != "" {
		fmt.Fprintf(r.out, "Project: %s\n", snap.ProjectPath)
	} else {
		fmt.Fprintln(r.out, "No project selected. Use /project <path>.")
	}
	if advisory := session.AdvisoryText(snap.Install); advisory != "" {
		fmt.Fprint(r.out, advisory)
	}
}

// endedHistory is how many finished generations the renderer remembers.
const endedHistory = 8

// eventRenderer prints streamed session events.
type eventRenderer struct {
	out io.Writer
	// active is the generation running in the last rendered snapshot.
	active string

	mu    sync.Mutex
	ended []string
	wake  chan struct{}
}

func newEventRenderer(out io.Writer) *eventRenderer {
	return &eventRenderer{out: out, wake: make(chan struct{}, 1)}
}

// consume renders events until the channel closes, handing every snapshot
// to onSnapshot when it is set.
func (r *eventRenderer) consume(ch <-chan events.Event, onSnapshot func(session.Snapshot)) {
	for e := range ch {
		if snap, ok := r.render(e); ok && onSnapshot != nil {
			onSnapshot(snap)
		}
	}
}

// render prints e and returns the snapshot it carried, if any.
func (r *eventRenderer) render(e events.Event) (session.Snapshot, bool) {
	base, ok := e.(*events.BaseEvent)
	if !ok {
		return session.Snapshot{}, false
	}

	switch p := base.Payload.(type) {
	case events.AssistantDeltaPayload:
		fmt.Fprint(r.out, p.Chunk)
	case session.Snapshot:
		if r.active != "" && (!p.IsGenerating() || p.GenerationID != r.active) {
			if !p.IsGenerating() {
				// A failed start lands in the transcript without any delta.
				if n := len(p.Transcript); n > 0 {
					last := p.Transcript[n-1]
					if last.Role == session.RoleAssistant && strings.HasPrefix(last.Content, "Error: ") {
						fmt.Fprintln(r.out, last.Content)
					}
				}
			}
			r.markEnded(r.active)
		}
		r.active = ""
		if p.IsGenerating() {
			r.active = p.GenerationID
		}
		return p, true
	}
	return session.Snapshot{}, false
}

func (r *eventRenderer) markEnded(generationID string) {
	r.mu.Lock()
	r.ended = append(r.ended, generationID)
	if len(r.ended) > endedHistory {
		r.ended = r.ended[len(r.ended)-endedHistory:]
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *eventRenderer) hasEnded(generationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.ended {
		if id == generationID {
			return true
		}
	}
	return false
}

// waitEnded blocks until the renderer has seen generationID finish.
func (r *eventRenderer) waitEnded(ctx context.Context, generationID string) error {
	for {
		if r.hasEnded(generationID) {
			return nil
		}
		select {
		case <-r.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func chatPrompt(snap session.Snapshot) string {
	name := "no project"
	if snap.ProjectPath != "" {
		name = filepath.Base(snap.ProjectPath)
	}
	if snap.IsGenerating() {
		return fmt.Sprintf("(%s) ... ", name)
	}
	return fmt.Sprintf("(%s) > ", name)
}

func chatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/project"),
		readline.PcItem("/stop"),
		readline.PcItem("/status"),
		readline.PcItem("/history"),
		readline.PcItem("/check"),
		readline.PcItem("/help"),
		readline.PcItem("/quit"),
	)
}

func expandUserPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return filepath.Join(userHomeDir(), strings.TrimPrefix(path, "~"))
	}
	return path
}

const chatHelp = `Commands:
  /project <path>   select the project directory (clears the conversation)
  /stop             stop the running answer
  /status           show project, state and install status
  /history          print the conversation
  /check            re-run the codex installation check
  /help             show this help
  /quit             leave the chat`
