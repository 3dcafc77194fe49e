package session

import (
	"context"

	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/rs/zerolog/log"
)

// job is one side effect queued by a controller step.
type job struct {
	name string
	fn   func(ctx context.Context)
}

// dispatcher runs jobs one at a time in submission order, off the
// controller loop. The queue is unbounded so enqueue never blocks a step.
type dispatcher struct {
	mu      sync.Mutex
	queue   []job
	closing bool

	wake chan struct{}
	done chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (d *dispatcher) enqueue(name string, fn func(ctx context.Context)) {
	d.mu.Lock()
	if d.closing {
		d.mu.Unlock()
		log.Debug().Str("job", name).Msg("dispatcher closed, dropping job")
		return
	}
	d.queue = append(d.queue, job{name: name, fn: fn})
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// run executes jobs until close is called and the queue is drained.
func (d *dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			closing := d.closing
			d.mu.Unlock()
			if closing {
				return
			}
			<-d.wake
			continue
		}
		next := d.queue[0]
		d.queue[0] = job{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		log.Debug().Str("job", next.name).Msg("dispatching")
		next.fn(ctx)
	}
}

// close stops accepting jobs and waits for queued ones to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closing = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}
