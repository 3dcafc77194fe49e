// Package http implements the HTTP and WebSocket surface of codexdesk.
package http

import "github.com/brianly1003/codexdesk/internal/domain/ports"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Time   string `json:"time" example:"2024-01-15T10:30:00Z"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error" example:"a response is already being generated"`
	Code  string `json:"code" example:"GENERATION_ACTIVE"`
}

// SendMessageRequest represents the request to send a chat message.
type SendMessageRequest struct {
	Text string `json:"text" example:"Add a README" binding:"required"`
}

// SetProjectRequest represents the request to select a project folder.
// An empty path clears the selection.
type SetProjectRequest struct {
	Path string `json:"path" example:"/Users/dev/myproject"`
}

// StatusResponse acknowledges an intent.
type StatusResponse struct {
	Status string `json:"status" example:"accepted"`
}

// InstallResponse reports the codex installation status.
type InstallResponse struct {
	Checked  bool                 `json:"checked" example:"true"`
	Status   *ports.InstallStatus `json:"status,omitempty"`
	Advisory string               `json:"advisory,omitempty"`
	Hints    []string             `json:"hints,omitempty"`
}
