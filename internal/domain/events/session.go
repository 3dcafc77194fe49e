package events

// AssistantDeltaPayload is the payload for assistant_delta events.
// It carries one chunk accepted into the pending assistant turn.
type AssistantDeltaPayload struct {
	Chunk string `json:"chunk"`
}

// NewAssistantDeltaEvent creates a new assistant_delta event.
func NewAssistantDeltaEvent(generationID, chunk string) *BaseEvent {
	return NewGenerationEvent(EventTypeAssistantDelta, AssistantDeltaPayload{
		Chunk: chunk,
	}, generationID)
}

// NewSessionUpdatedEvent creates a session_updated event carrying a snapshot.
func NewSessionUpdatedEvent(generationID string, snapshot interface{}) *BaseEvent {
	return NewGenerationEvent(EventTypeSessionUpdated, snapshot, generationID)
}

// NewSessionResponseEvent creates a session_updated event sent in reply to
// a get_session request.
func NewSessionResponseEvent(generationID string, snapshot interface{}, requestID string) *BaseEvent {
	e := NewSessionUpdatedEvent(generationID, snapshot)
	e.RequestID = requestID
	return e
}
