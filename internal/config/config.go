// Package config handles configuration management for codexdesk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CODEXDESK_SERVER_PORT.
const EnvPrefix = "CODEXDESK"

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Codex   CodexConfig   `mapstructure:"codex"`
	Session SessionConfig `mapstructure:"session"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	Logging LoggingConfig `mapstructure:"logging"`
	State   StateConfig   `mapstructure:"state"`
	Pairing PairingConfig `mapstructure:"pairing"`
}

// ServerConfig holds HTTP/WebSocket server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	ExternalURL string `mapstructure:"external_url"` // Optional public URL, e.g. behind a tunnel
}

// CodexConfig holds codex CLI configuration.
type CodexConfig struct {
	Command        string   `mapstructure:"command"`
	Args           []string `mapstructure:"args"`
	TimeoutMinutes int      `mapstructure:"timeout_minutes"`
}

// SessionConfig holds chat session configuration.
type SessionConfig struct {
	ContextWindow  int    `mapstructure:"context_window"`
	UserLabel      string `mapstructure:"user_label"`
	AssistantLabel string `mapstructure:"assistant_label"`
}

// WatcherConfig holds project watcher configuration.
type WatcherConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	DebounceMS     int      `mapstructure:"debounce_ms"`
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StateConfig locates the durable settings database.
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// PairingConfig holds QR code configuration.
type PairingConfig struct {
	ShowQRInTerminal bool `mapstructure:"show_qr_in_terminal"`
}

// DBPath returns the settings database file path.
func (s StateConfig) DBPath() string {
	return filepath.Join(s.Dir, "codexdesk.db")
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.codexdesk")
		v.AddConfigPath("/etc/codexdesk")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing config file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8790)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.external_url", "")

	v.SetDefault("codex.command", "codex")
	v.SetDefault("codex.args", DefaultCodexArgs)
	v.SetDefault("codex.timeout_minutes", 30)

	v.SetDefault("session.context_window", 6)
	v.SetDefault("session.user_label", "User")
	v.SetDefault("session.assistant_label", "Codex")

	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.debounce_ms", 100)
	v.SetDefault("watcher.ignore_patterns", DefaultWatcherIgnorePatterns)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("state.dir", "")

	v.SetDefault("pairing.show_qr_in_terminal", true)
}

// postProcess fills derived values.
func postProcess(cfg *Config) error {
	if cfg.State.Dir == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve state directory: %w", err)
		}
		cfg.State.Dir = dir
	}

	absDir, err := filepath.Abs(expandHome(cfg.State.Dir))
	if err != nil {
		return fmt.Errorf("failed to resolve state directory: %w", err)
	}
	cfg.State.Dir = absDir

	if len(cfg.Codex.Args) == 0 {
		cfg.Codex.Args = append([]string(nil), DefaultCodexArgs...)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// GetConfigDir returns the user config directory for codexdesk.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".codexdesk"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
