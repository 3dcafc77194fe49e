package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	validLogLevels  = []string{"trace", "debug", "info", "warn", "error"}
	validLogFormats = []string{"console", "json"}
)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateCodex(&cfg.Codex); err != nil {
		return err
	}
	if err := validateSession(&cfg.Session); err != nil {
		return err
	}
	if err := validateWatcher(&cfg.Watcher); err != nil {
		return err
	}
	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Host == "" {
		return fmt.Errorf("server.host cannot be empty")
	}
	if cfg.ExternalURL != "" {
		if err := validateExternalURL(cfg.ExternalURL, "server.external_url", []string{"http", "https"}); err != nil {
			return err
		}
	}
	return nil
}

// validateExternalURL validates that a URL is well-formed and uses an allowed scheme.
func validateExternalURL(rawURL, fieldName string, allowedSchemes []string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", fieldName, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}
	if !containsFold(allowedSchemes, parsed.Scheme) {
		return fmt.Errorf("%s must use one of these schemes: %s", fieldName, strings.Join(allowedSchemes, ", "))
	}
	return nil
}

func validateCodex(cfg *CodexConfig) error {
	if cfg.Command == "" {
		return fmt.Errorf("codex.command cannot be empty")
	}
	if cfg.TimeoutMinutes < 0 {
		return fmt.Errorf("codex.timeout_minutes cannot be negative")
	}
	if cfg.TimeoutMinutes > 240 {
		return fmt.Errorf("codex.timeout_minutes cannot exceed 240")
	}
	for _, arg := range cfg.Args {
		if arg == "-C" || arg == "--cd" {
			return fmt.Errorf("codex.args must not set the working directory; it is taken from the selected project")
		}
	}
	return nil
}

func validateSession(cfg *SessionConfig) error {
	if cfg.ContextWindow < 1 {
		return fmt.Errorf("session.context_window must be at least 1")
	}
	if cfg.ContextWindow > 50 {
		return fmt.Errorf("session.context_window cannot exceed 50")
	}
	if strings.TrimSpace(cfg.UserLabel) == "" || strings.TrimSpace(cfg.AssistantLabel) == "" {
		return fmt.Errorf("session.user_label and session.assistant_label cannot be empty")
	}
	return nil
}

func validateWatcher(cfg *WatcherConfig) error {
	if cfg.DebounceMS < 0 {
		return fmt.Errorf("watcher.debounce_ms cannot be negative")
	}
	if cfg.DebounceMS > 10000 {
		return fmt.Errorf("watcher.debounce_ms cannot exceed 10000ms")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if !containsFold(validLogLevels, cfg.Level) {
		return fmt.Errorf("logging.level must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	if !containsFold(validLogFormats, cfg.Format) {
		return fmt.Errorf("logging.format must be one of: %s", strings.Join(validLogFormats, ", "))
	}
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
