package session

import (
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/hub"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EventHandler receives the three gateway event kinds.
type EventHandler interface {
	OnOutput(generationID, chunk string)
	OnError(generationID, chunk string)
	OnComplete(generationID string)
}

// Adapter subscribes to the hub once and forwards codex_output,
// codex_error and codex_complete events to an EventHandler. Its queue is
// unbounded, so a long run cannot get it removed from the hub.
type Adapter struct {
	hub     ports.EventHub
	handler EventHandler

	startOnce sync.Once
	stopOnce  sync.Once
	sub       *hub.QueueSubscriber
	done      chan struct{}
}

// NewAdapter creates an adapter. It does not subscribe until Start.
func NewAdapter(h ports.EventHub, handler EventHandler) *Adapter {
	return &Adapter{
		hub:     h,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start subscribes to the hub. Repeat calls are no-ops.
func (a *Adapter) Start() {
	a.startOnce.Do(func() {
		a.sub = hub.NewQueueSubscriber("session-adapter-" + uuid.NewString()[:8])
		a.hub.Subscribe(hub.NewTypeFilter(a.sub,
			events.EventTypeCodexOutput,
			events.EventTypeCodexError,
			events.EventTypeCodexComplete,
		))
		go a.forward()
		log.Debug().Str("subscriber", a.sub.ID()).Msg("session adapter subscribed")
	})
}

// Stop unsubscribes and waits for the forwarding goroutine to exit. No
// handler call happens after Stop returns. Repeat calls are no-ops.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		// A Start after Stop must not subscribe.
		a.startOnce.Do(func() {})
		if a.sub == nil {
			return
		}
		a.hub.Unsubscribe(a.sub.ID())
		_ = a.sub.Close()
		<-a.done
		log.Debug().Msg("session adapter stopped")
	})
}

func (a *Adapter) forward() {
	defer close(a.done)
	for {
		select {
		case <-a.sub.Done():
			return
		case e, ok := <-a.sub.Events():
			if !ok {
				return
			}
			a.dispatch(e)
		}
	}
}

func (a *Adapter) dispatch(e events.Event) {
	generationID := e.GetGenerationID()
	switch e.Type() {
	case events.EventTypeCodexOutput:
		if line, ok := events.LinePayload(e); ok {
			a.handler.OnOutput(generationID, line)
		}
	case events.EventTypeCodexError:
		if line, ok := events.LinePayload(e); ok {
			a.handler.OnError(generationID, line)
		}
	case events.EventTypeCodexComplete:
		a.handler.OnComplete(generationID)
	}
}
