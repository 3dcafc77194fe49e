// Package events defines all event types used in codexdesk.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Codex process events (published by the process gateway)
	EventTypeCodexOutput   EventType = "codex_output"
	EventTypeCodexError    EventType = "codex_error"
	EventTypeCodexComplete EventType = "codex_complete"
	EventTypeCodexStatus   EventType = "codex_status"

	// Session events (published by the session controller)
	EventTypeSessionUpdated EventType = "session_updated"
	EventTypeAssistantDelta EventType = "assistant_delta"

	// File events
	EventTypeFileChanged EventType = "file_changed"

	// Connection events
	EventTypeHeartbeat EventType = "heartbeat"
	EventTypeError     EventType = "error"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)

	// GetGenerationID returns the generation the event belongs to (may be empty).
	GetGenerationID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType    EventType   `json:"event"`
	EventTime    time.Time   `json:"timestamp"`
	GenerationID string      `json:"generation_id,omitempty"`
	Payload      interface{} `json:"payload"`
	RequestID    string      `json:"request_id,omitempty"`
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// GetGenerationID returns the generation ID.
func (e *BaseEvent) GetGenerationID() string {
	return e.GenerationID
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type and payload.
func NewEvent(eventType EventType, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewEventWithRequestID creates a new event with a request ID for correlation.
func NewEventWithRequestID(eventType EventType, payload interface{}, requestID string) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
		RequestID: requestID,
	}
}

// NewGenerationEvent creates a new event tagged with a generation ID.
func NewGenerationEvent(eventType EventType, payload interface{}, generationID string) *BaseEvent {
	return &BaseEvent{
		EventType:    eventType,
		EventTime:    time.Now().UTC(),
		GenerationID: generationID,
		Payload:      payload,
	}
}

// HeartbeatPayload is the payload for heartbeat events.
type HeartbeatPayload struct {
	Sequence      int64  `json:"sequence"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// NewHeartbeatEvent creates a new heartbeat event.
func NewHeartbeatEvent(seq int64, state string, uptime int64) *BaseEvent {
	return NewEvent(EventTypeHeartbeat, HeartbeatPayload{
		Sequence:      seq,
		State:         state,
		UptimeSeconds: uptime,
	})
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorEvent creates a new error event answering the request requestID.
// An empty requestID marks an error no request can be matched to.
func NewErrorEvent(code, message, requestID string) *BaseEvent {
	return NewEventWithRequestID(EventTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	}, requestID)
}
