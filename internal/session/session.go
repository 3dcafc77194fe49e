// Package session implements the chat session controller: the single owner
// of the transcript, the pending assistant turn and the generation state.
package session

import (
	"time"

	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/google/uuid"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// State is the generation state of the session.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
)

// Turn is one finalized message in the transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func newTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Snapshot is a read-only copy of the session for presentation.
type Snapshot struct {
	ProjectPath  string               `json:"project_path"`
	State        State                `json:"state"`
	GenerationID string               `json:"generation_id,omitempty"`
	Transcript   []Turn               `json:"transcript"`
	PendingText  string               `json:"pending_text,omitempty"`
	Install      *ports.InstallStatus `json:"install,omitempty"`
}

// IsGenerating reports whether a response is in flight.
func (s Snapshot) IsGenerating() bool {
	return s.State == StateGenerating
}

// CanSend reports whether a message would currently be accepted.
func (s Snapshot) CanSend() bool {
	return s.State == StateIdle && s.ProjectPath != "" && s.Install != nil && s.Install.Installed
}
