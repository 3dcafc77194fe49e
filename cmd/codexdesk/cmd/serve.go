package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianly1003/codexdesk/internal/app"
	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	projectPath string
	port        int
	host        string
	externalURL string
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat session over HTTP and WebSocket",
	Long: `Start the codexdesk server. The session is driven through the REST
API and every session event is streamed on /ws.

Example:
  codexdesk serve                          # Serve on 127.0.0.1:8790
  codexdesk serve --project ~/src/app      # Select a project on startup
  codexdesk serve --host 0.0.0.0 --port 9000

Tunnels:
  When the server is reached through a forwarded URL, pass it so the
  pairing QR code points at it:

  codexdesk serve --external-url https://your-tunnel.devtunnels.ms`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&projectPath, "project", "", "project directory to select on startup (default: last used)")
	serveCmd.Flags().IntVar(&port, "port", 0, "server port for HTTP and WebSocket (default: 8790)")
	serveCmd.Flags().StringVar(&host, "host", "", "bind address (default: 127.0.0.1)")
	serveCmd.Flags().StringVar(&externalURL, "external-url", "", "public URL advertised in the pairing QR code")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if externalURL != "" {
		cfg.Server.ExternalURL = externalURL
	}

	// Re-validate after overrides
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("codex", cfg.Codex.Command).
		Bool("deadlock_detection", sync.DetectionEnabled).
		Msg("starting codexdesk")

	application, err := newApplication(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, os.Stdout); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	log.Info().Msg("codexdesk stopped")
	return nil
}

func newApplication(cfg *config.Config) (*app.App, error) {
	opts := []app.Option{
		app.WithLogger(app.NewLogger(os.Stderr, cfg.Logging.Level)),
	}
	if projectPath != "" {
		opts = append(opts, app.WithProject(projectPath))
	}

	application, err := app.New(cfg, version, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return application, nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Host:            %s\n", cfg.Server.Host)
	fmt.Printf("Port:            %d\n", cfg.Server.Port)
	if cfg.Server.ExternalURL != "" {
		fmt.Printf("External URL:    %s\n", cfg.Server.ExternalURL)
	}
	fmt.Printf("Codex Command:   %s\n", cfg.Codex.Command)
	fmt.Printf("Codex Args:      %v\n", cfg.Codex.Args)
	fmt.Printf("Codex Timeout:   %dm\n", cfg.Codex.TimeoutMinutes)
	fmt.Printf("Context Window:  %d\n", cfg.Session.ContextWindow)
	fmt.Printf("Watcher Enabled: %t\n", cfg.Watcher.Enabled)
	fmt.Printf("State Database:  %s\n", cfg.State.DBPath())
	fmt.Printf("Log Level:       %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:      %s\n", cfg.Logging.Format)
}
