package config

import (
	"strings"
	"testing"
)

func checkErr(t *testing.T, name string, err error, wantErr string) {
	t.Helper()
	if wantErr == "" {
		if err != nil {
			t.Errorf("%s() error = %v, want nil", name, err)
		}
		return
	}
	if err == nil {
		t.Errorf("%s() error = nil, want error containing %q", name, wantErr)
	} else if !strings.Contains(err.Error(), wantErr) {
		t.Errorf("%s() error = %v, want error containing %q", name, err, wantErr)
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  ServerConfig{Port: 8790, Host: "127.0.0.1"},
		},
		{
			name:    "port too low",
			cfg:     ServerConfig{Port: 0, Host: "127.0.0.1"},
			wantErr: "server.port must be between 1 and 65535",
		},
		{
			name:    "port too high",
			cfg:     ServerConfig{Port: 70000, Host: "127.0.0.1"},
			wantErr: "server.port must be between 1 and 65535",
		},
		{
			name:    "empty host",
			cfg:     ServerConfig{Port: 8790, Host: ""},
			wantErr: "host cannot be empty",
		},
		{
			name: "valid external url",
			cfg:  ServerConfig{Port: 8790, Host: "127.0.0.1", ExternalURL: "https://desk.example.com"},
		},
		{
			name:    "external url with ws scheme",
			cfg:     ServerConfig{Port: 8790, Host: "127.0.0.1", ExternalURL: "wss://desk.example.com"},
			wantErr: "must use one of these schemes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateServer", validateServer(&tt.cfg), tt.wantErr)
		})
	}
}

func TestValidateCodex(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CodexConfig
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  CodexConfig{Command: "codex", Args: DefaultCodexArgs, TimeoutMinutes: 30},
		},
		{
			name: "no timeout",
			cfg:  CodexConfig{Command: "codex", TimeoutMinutes: 0},
		},
		{
			name:    "empty command",
			cfg:     CodexConfig{Command: "", TimeoutMinutes: 30},
			wantErr: "codex.command cannot be empty",
		},
		{
			name:    "negative timeout",
			cfg:     CodexConfig{Command: "codex", TimeoutMinutes: -1},
			wantErr: "cannot be negative",
		},
		{
			name:    "timeout too high",
			cfg:     CodexConfig{Command: "codex", TimeoutMinutes: 500},
			wantErr: "cannot exceed 240",
		},
		{
			name:    "args set working directory",
			cfg:     CodexConfig{Command: "codex", Args: []string{"exec", "-C", "/tmp"}},
			wantErr: "must not set the working directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateCodex", validateCodex(&tt.cfg), tt.wantErr)
		})
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SessionConfig
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  SessionConfig{ContextWindow: 6, UserLabel: "User", AssistantLabel: "Codex"},
		},
		{
			name:    "zero window",
			cfg:     SessionConfig{ContextWindow: 0, UserLabel: "User", AssistantLabel: "Codex"},
			wantErr: "must be at least 1",
		},
		{
			name:    "negative window",
			cfg:     SessionConfig{ContextWindow: -1, UserLabel: "User", AssistantLabel: "Codex"},
			wantErr: "must be at least 1",
		},
		{
			name:    "window too large",
			cfg:     SessionConfig{ContextWindow: 51, UserLabel: "User", AssistantLabel: "Codex"},
			wantErr: "cannot exceed 50",
		},
		{
			name:    "blank label",
			cfg:     SessionConfig{ContextWindow: 6, UserLabel: "  ", AssistantLabel: "Codex"},
			wantErr: "cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateSession", validateSession(&tt.cfg), tt.wantErr)
		})
	}
}

func TestValidateWatcher(t *testing.T) {
	tests := []struct {
		name    string
		cfg     WatcherConfig
		wantErr string
	}{
		{
			name: "valid config",
			cfg:  WatcherConfig{Enabled: true, DebounceMS: 100},
		},
		{
			name:    "negative debounce",
			cfg:     WatcherConfig{Enabled: true, DebounceMS: -1},
			wantErr: "cannot be negative",
		},
		{
			name:    "debounce too high",
			cfg:     WatcherConfig{Enabled: true, DebounceMS: 20000},
			wantErr: "cannot exceed 10000ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateWatcher", validateWatcher(&tt.cfg), tt.wantErr)
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr string
	}{
		{name: "console info", cfg: LoggingConfig{Level: "info", Format: "console"}},
		{name: "json trace", cfg: LoggingConfig{Level: "trace", Format: "json"}},
		{name: "bad level", cfg: LoggingConfig{Level: "loud", Format: "console"}, wantErr: "logging.level"},
		{name: "bad format", cfg: LoggingConfig{Level: "info", Format: "xml"}, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateLogging", validateLogging(&tt.cfg), tt.wantErr)
		})
	}
}

func TestValidateExternalURL(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		allowedSchemes []string
		wantErr        string
	}{
		{name: "valid https url", url: "https://example.com/api", allowedSchemes: []string{"http", "https"}},
		{name: "invalid scheme", url: "ftp://example.com", allowedSchemes: []string{"http", "https"}, wantErr: "must use one of these schemes"},
		{name: "missing host", url: "https://", allowedSchemes: []string{"http", "https"}, wantErr: "must include a host"},
		{name: "case insensitive scheme", url: "HTTPS://example.com", allowedSchemes: []string{"http", "https"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, "validateExternalURL", validateExternalURL(tt.url, "test_url", tt.allowedSchemes), tt.wantErr)
		})
	}
}

func TestValidate_FullConfig(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 8790, Host: "127.0.0.1"},
		Codex:   CodexConfig{Command: "codex", Args: DefaultCodexArgs, TimeoutMinutes: 30},
		Session: SessionConfig{ContextWindow: 6, UserLabel: "User", AssistantLabel: "Codex"},
		Watcher: WatcherConfig{Enabled: true, DebounceMS: 100, IgnorePatterns: DefaultWatcherIgnorePatterns},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		State:   StateConfig{Dir: t.TempDir()},
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.Session.ContextWindow = -3
	if err := Validate(cfg); err == nil {
		t.Error("Validate() should surface the session error")
	}
}
