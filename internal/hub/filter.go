package hub

import (
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
)

// TypeFilter wraps a subscriber and only forwards events of the given types.
// Events of other types are accepted and silently discarded.
type TypeFilter struct {
	inner ports.Subscriber
	types map[events.EventType]bool
}

// NewTypeFilter creates a filter forwarding only the listed event types.
// With no types every event is forwarded.
func NewTypeFilter(inner ports.Subscriber, types ...events.EventType) *TypeFilter {
	set := make(map[events.EventType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return &TypeFilter{inner: inner, types: set}
}

// ID returns the wrapped subscriber's identifier.
func (f *TypeFilter) ID() string {
	return f.inner.ID()
}

// Send forwards the event if its type is accepted.
func (f *TypeFilter) Send(event events.Event) error {
	if len(f.types) > 0 && !f.types[event.Type()] {
		return nil
	}
	return f.inner.Send(event)
}

// Close closes the wrapped subscriber.
func (f *TypeFilter) Close() error {
	return f.inner.Close()
}

// Done returns the wrapped subscriber's done channel.
func (f *TypeFilter) Done() <-chan struct{} {
	return f.inner.Done()
}
