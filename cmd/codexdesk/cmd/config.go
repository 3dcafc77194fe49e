package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brianly1003/codexdesk/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage codexdesk configuration.

Without subcommands, shows the current effective configuration.

Examples:
  codexdesk config              # Show current config
  codexdesk config init         # Create config file with defaults
  codexdesk config path         # Show config file location
  codexdesk config get <key>    # Get a config value
  codexdesk config set <key> <value>  # Set a config value`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printConfig(cfg)
		return nil
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.codexdesk/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  codexdesk config init          # Create ~/.codexdesk/config.yaml
  codexdesk config init --local  # Create ./config.yaml
  codexdesk config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	RunE:  runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  codexdesk config get server.port
  codexdesk config get codex.command
  codexdesk config get session.context_window`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key.

Creates ~/.codexdesk/config.yaml if it doesn't exist.
Keys use dot notation to access nested values.

Examples:
  codexdesk config set server.port 9000
  codexdesk config set logging.level debug
  codexdesk config set watcher.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.codexdesk/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var configPath string

	if configInitLocal {
		configPath = "config.yaml"
	} else {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		if !configInitForce {
			return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
		}
	}

	if err := writeDefaultConfig(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit this file to customize codexdesk behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config dir: %w", err)
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range configSearchPaths(cfgFile) {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getConfigValue(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	if _, err := getConfigValue(defaultDoctorConfig(), key); err != nil {
		return err
	}

	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if err := setConfigFileValue(configPath, key, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

// setConfigFileValue rewrites one key of the YAML file at path, creating
// the file when missing.
func setConfigFileValue(path, key, value string) error {
	var data map[string]interface{}

	if content, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	if data == nil {
		data = make(map[string]interface{})
	}

	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func getConfigValue(cfg *config.Config, key string) (interface{}, error) {
	section, field, ok := strings.Cut(key, ".")
	if !ok || field == "" {
		return nil, fmt.Errorf("invalid key: %s", key)
	}

	switch section {
	case "server":
		switch field {
		case "port":
			return cfg.Server.Port, nil
		case "host":
			return cfg.Server.Host, nil
		case "external_url":
			return cfg.Server.ExternalURL, nil
		}
	case "codex":
		switch field {
		case "command":
			return cfg.Codex.Command, nil
		case "args":
			return strings.Join(cfg.Codex.Args, " "), nil
		case "timeout_minutes":
			return cfg.Codex.TimeoutMinutes, nil
		}
	case "session":
		switch field {
		case "context_window":
			return cfg.Session.ContextWindow, nil
		case "user_label":
			return cfg.Session.UserLabel, nil
		case "assistant_label":
			return cfg.Session.AssistantLabel, nil
		}
	case "watcher":
		switch field {
		case "enabled":
			return cfg.Watcher.Enabled, nil
		case "debounce_ms":
			return cfg.Watcher.DebounceMS, nil
		}
	case "logging":
		switch field {
		case "level":
			return cfg.Logging.Level, nil
		case "format":
			return cfg.Logging.Format, nil
		}
	case "state":
		if field == "dir" {
			return cfg.State.Dir, nil
		}
	case "pairing":
		if field == "show_qr_in_terminal" {
			return cfg.Pairing.ShowQRInTerminal, nil
		}
	}

	return nil, fmt.Errorf("unknown config key: %s", key)
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	parts := strings.Split(key, ".")

	current := data
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := current[parts[i]]; !ok {
			current[parts[i]] = make(map[string]interface{})
		}
		if nested, ok := current[parts[i]].(map[string]interface{}); ok {
			current = nested
		} else {
			return fmt.Errorf("cannot set nested value: %s is not a map", parts[i])
		}
	}

	current[parts[len(parts)-1]] = parseValue(key, value)
	return nil
}

func parseValue(key string, value string) interface{} {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	// Integer values for known int fields
	intKeys := []string{"port", "debounce_ms", "timeout_minutes", "context_window"}
	for _, k := range intKeys {
		if strings.HasSuffix(key, k) {
			if i, err := strconv.Atoi(value); err == nil {
				return i
			}
		}
	}

	if key == "codex.args" {
		return strings.Fields(value)
	}

	return value
}

func writeDefaultConfig(path string) error {
	content := `# codexdesk Configuration
# Copy this file to ~/.codexdesk/config.yaml and modify as needed

# Server settings
server:
  # Port for the HTTP API and WebSocket stream
  port: 8790

  # Bind address (use 0.0.0.0 to allow other devices)
  host: "127.0.0.1"

  # Public URL for tunnels; the pairing QR code uses it instead of host:port
  # external_url: "https://your-tunnel.devtunnels.ms"

# codex CLI settings
codex:
  # Path to the codex executable (or just "codex" if in PATH)
  command: "codex"

  # Arguments placed before "-C <project> <prompt>"
  args: ["exec", "--sandbox", "workspace-write", "--skip-git-repo-check"]

  # Upper bound for one answer in minutes (0 disables)
  timeout_minutes: 30

# Chat session
session:
  # Number of earlier turns replayed to codex as context
  context_window: 6

  # Labels used when replaying turns
  user_label: "User"
  assistant_label: "Codex"

# Project watcher
watcher:
  enabled: true

  # Debounce rapid changes (milliseconds)
  debounce_ms: 100

# Logging settings
logging:
  # Log level: trace, debug, info, warn, error
  level: "info"

  # Log format: console (human-readable) or json
  format: "console"

# Durable state (last selected project), defaults to ~/.codexdesk
# state:
#   dir: "~/.codexdesk"

# Pairing
pairing:
  show_qr_in_terminal: true
`

	return os.WriteFile(path, []byte(content), 0644)
}
