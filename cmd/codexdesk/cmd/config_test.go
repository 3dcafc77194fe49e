package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/brianly1003/codexdesk/internal/config"
	"gopkg.in/yaml.v3"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  interface{}
	}{
		{key: "watcher.enabled", value: "true", want: true},
		{key: "watcher.enabled", value: "false", want: false},
		{key: "server.port", value: "9000", want: 9000},
		{key: "session.context_window", value: "4", want: 4},
		{key: "server.port", value: "abc", want: "abc"},
		{key: "logging.level", value: "debug", want: "debug"},
		{key: "codex.args", value: "exec --sandbox read-only", want: []string{"exec", "--sandbox", "read-only"}},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got := parseValue(tt.key, tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseValue(%q, %q) = %#v, want %#v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestSetNestedValue(t *testing.T) {
	data := map[string]interface{}{
		"server": map[string]interface{}{"host": "127.0.0.1"},
		"flat":   "value",
	}

	if err := setNestedValue(data, "server.port", "9000"); err != nil {
		t.Fatalf("setNestedValue() error = %v", err)
	}
	server := data["server"].(map[string]interface{})
	if server["port"] != 9000 || server["host"] != "127.0.0.1" {
		t.Errorf("server = %v", server)
	}

	if err := setNestedValue(data, "logging.level", "debug"); err != nil {
		t.Fatalf("setNestedValue() error = %v", err)
	}
	if data["logging"].(map[string]interface{})["level"] != "debug" {
		t.Errorf("logging = %v", data["logging"])
	}

	if err := setNestedValue(data, "flat.key", "x"); err == nil {
		t.Error("setting below a scalar should fail")
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8790, Host: "127.0.0.1"},
		Codex:   config.CodexConfig{Command: "codex", Args: []string{"exec", "--skip-git-repo-check"}},
		Session: config.SessionConfig{ContextWindow: 6, UserLabel: "User", AssistantLabel: "Codex"},
		Watcher: config.WatcherConfig{Enabled: true},
	}

	tests := []struct {
		key     string
		want    interface{}
		wantErr bool
	}{
		{key: "server.port", want: 8790},
		{key: "codex.command", want: "codex"},
		{key: "codex.args", want: "exec --skip-git-repo-check"},
		{key: "session.context_window", want: 6},
		{key: "session.assistant_label", want: "Codex"},
		{key: "watcher.enabled", want: true},
		{key: "server", wantErr: true},
		{key: "server.unknown", wantErr: true},
		{key: "claude.command", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := getConfigValue(cfg, tt.key)
			if tt.wantErr {
				if err == nil {
					t.Errorf("getConfigValue(%q) should fail", tt.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("getConfigValue(%q) error = %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("getConfigValue(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetConfigFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := setConfigFileValue(path, "server.port", "9100"); err != nil {
		t.Fatalf("setConfigFileValue() error = %v", err)
	}
	if err := setConfigFileValue(path, "watcher.enabled", "false"); err != nil {
		t.Fatalf("setConfigFileValue() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var data map[string]map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if data["server"]["port"] != 9100 {
		t.Errorf("server.port = %v, want 9100", data["server"]["port"])
	}
	if data["watcher"]["enabled"] != false {
		t.Errorf("watcher.enabled = %v, want false", data["watcher"]["enabled"])
	}
}

func TestWriteDefaultConfig_Loads(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.Server.Port != 8790 {
		t.Errorf("port = %d, want 8790", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Codex.Args, config.DefaultCodexArgs) {
		t.Errorf("args = %v, want %v", cfg.Codex.Args, config.DefaultCodexArgs)
	}
	if cfg.Session.ContextWindow != 6 {
		t.Errorf("context_window = %d, want 6", cfg.Session.ContextWindow)
	}
	if cfg.State.Dir != filepath.Join(home, ".codexdesk") {
		t.Errorf("state dir = %q", cfg.State.Dir)
	}
}
