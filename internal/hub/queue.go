package hub

import (
	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/events"
	"github.com/brianly1003/codexdesk/internal/sync"
)

// QueueSubscriber is a subscriber backed by an unbounded queue. Send never
// blocks and never fails while the subscriber is open, so the hub keeps it
// however far the reader falls behind.
type QueueSubscriber struct {
	id   string
	out  chan events.Event
	wake chan struct{}
	done chan struct{}

	mu     sync.Mutex
	queue  []events.Event
	closed bool
}

// NewQueueSubscriber creates a queue subscriber and starts its pump.
func NewQueueSubscriber(id string) *QueueSubscriber {
	s := &QueueSubscriber{
		id:   id,
		out:  make(chan events.Event),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// ID returns the subscriber's unique identifier.
func (s *QueueSubscriber) ID() string {
	return s.id
}

// Send appends the event to the queue.
func (s *QueueSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSubscriberClosed
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops delivery. Events still queued are discarded and the events
// channel is closed once the pump exits.
func (s *QueueSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.queue = nil
	close(s.done)
	return nil
}

// Done returns a channel that's closed when the subscriber is done.
func (s *QueueSubscriber) Done() <-chan struct{} {
	return s.done
}

// Events returns the channel to receive events from, in Send order.
func (s *QueueSubscriber) Events() <-chan events.Event {
	return s.out
}

// Pending returns the number of events waiting to be received.
func (s *QueueSubscriber) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *QueueSubscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
			case <-s.done:
				return
			}
			continue
		}
		event := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- event:
		case <-s.done:
			return
		}
	}
}
