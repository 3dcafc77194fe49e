package events

// CodexState represents the current state of the codex process.
type CodexState string

const (
	CodexStateIdle    CodexState = "idle"
	CodexStateRunning CodexState = "running"
	CodexStateStopped CodexState = "stopped"
	CodexStateError   CodexState = "error"
)

// StreamType represents the output stream type.
type StreamType string

const (
	StreamStdout StreamType = "stdout"
	StreamStderr StreamType = "stderr"
)

// CodexLinePayload is the payload for codex_output and codex_error events.
type CodexLinePayload struct {
	Line   string     `json:"line"`
	Stream StreamType `json:"stream"`
}

// CodexCompletePayload is the payload for codex_complete events.
type CodexCompletePayload struct {
	ExitCode int `json:"exit_code"`
}

// CodexStatusPayload is the payload for codex_status events.
type CodexStatusPayload struct {
	State    CodexState `json:"state"`
	PID      int        `json:"pid,omitempty"`
	ExitCode int        `json:"exit_code,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// NewCodexOutputEvent creates a codex_output event for one stdout line.
func NewCodexOutputEvent(generationID, line string) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexOutput, CodexLinePayload{
		Line:   line,
		Stream: StreamStdout,
	}, generationID)
}

// NewCodexErrorEvent creates a codex_error event for one stderr line.
func NewCodexErrorEvent(generationID, line string) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexError, CodexLinePayload{
		Line:   line,
		Stream: StreamStderr,
	}, generationID)
}

// NewCodexCompleteEvent creates a codex_complete event.
func NewCodexCompleteEvent(generationID string, exitCode int) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexComplete, CodexCompletePayload{
		ExitCode: exitCode,
	}, generationID)
}

// NewCodexRunningEvent creates a codex_status event for a spawned process.
func NewCodexRunningEvent(generationID string, pid int) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexStatus, CodexStatusPayload{
		State: CodexStateRunning,
		PID:   pid,
	}, generationID)
}

// NewCodexStoppedEvent creates a codex_status event for a stopped process.
func NewCodexStoppedEvent(generationID string, exitCode int) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexStatus, CodexStatusPayload{
		State:    CodexStateStopped,
		ExitCode: exitCode,
	}, generationID)
}

// NewCodexFailedEvent creates a codex_status event for a failed run.
func NewCodexFailedEvent(generationID, errMsg string, exitCode int) *BaseEvent {
	return NewGenerationEvent(EventTypeCodexStatus, CodexStatusPayload{
		State:    CodexStateError,
		ExitCode: exitCode,
		Error:    errMsg,
	}, generationID)
}

// LinePayload extracts the line from a codex_output or codex_error event.
func LinePayload(e Event) (string, bool) {
	base, ok := e.(*BaseEvent)
	if !ok {
		return "", false
	}
	switch p := base.Payload.(type) {
	case CodexLinePayload:
		return p.Line, true
	case *CodexLinePayload:
		return p.Line, true
	}
	return "", false
}
