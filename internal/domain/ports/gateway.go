// Package ports defines the interfaces (ports) for the hexagonal architecture.
package ports

import "context"

// InstallStatus reports whether the assistant executable is usable.
type InstallStatus struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StartRequest describes one generation handed to the gateway.
type StartRequest struct {
	GenerationID string
	Message      string
	ProjectPath  string
	Context      []string
}

// Gateway defines the contract for the assistant process gateway.
// Output is not returned from Start; it is published on the event hub
// as codex_output, codex_error and codex_complete events tagged with
// the request's generation ID.
type Gateway interface {
	// CheckInstalled reports whether the assistant executable can be run.
	CheckInstalled(ctx context.Context) InstallStatus

	// Start spawns the assistant for one generation.
	Start(ctx context.Context, req StartRequest) error

	// Stop terminates the active generation, if any.
	Stop(ctx context.Context) error
}

// SettingsStore defines the contract for durable process-wide settings.
type SettingsStore interface {
	// LastProjectPath returns the last selected project path, or "" when none.
	LastProjectPath(ctx context.Context) (string, error)

	// SetLastProjectPath records the project path. An empty path clears it.
	SetLastProjectPath(ctx context.Context, path string) error
}
