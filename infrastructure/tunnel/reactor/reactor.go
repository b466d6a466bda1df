package reactor

import (
	"context"
	"errors"
	"sync"

	"multitun/infrastructure/tunnel/session"
)

var _ session.Executor = (*Reactor)(nil)

// ErrStopped is returned by Submit once the loop has exited.
var ErrStopped = errors.New("event loop stopped")

const DefaultTaskQueueSize = 1024

// Reactor is the single goroutine that owns every session and the registry.
// Other goroutines reach that state only by submitting tasks.
type Reactor struct {
	tasks    chan func()
	stopping chan struct{}

	// mu orders Submit against shutdown: once closed is set no task is accepted,
	// and every task accepted before runs on the loop goroutine.
	mu     sync.RWMutex
	closed bool
}

func New(queueSize int) *Reactor {
	if queueSize <= 0 {
		queueSize = DefaultTaskQueueSize
	}
	return &Reactor{
		tasks:    make(chan func(), queueSize),
		stopping: make(chan struct{}),
	}
}

// Submit queues task for execution on the loop goroutine, in submission order.
// It blocks while the queue is full. A nil error means the task will run.
func (r *Reactor) Submit(ctx context.Context, task func()) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrStopped
	}
	select {
	case r.tasks <- task:
		return nil
	case <-r.stopping:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run multiplexes interface packets and submitted tasks until ctx ends or the
// packet sequence is exhausted. Tasks accepted before that are still run, then
// onStop runs, all on the loop goroutine, before Run returns.
func (r *Reactor) Run(
	ctx context.Context,
	packets <-chan []byte,
	onPacket func(packet []byte),
	onStop func(),
) error {
	defer r.shutdown(onStop)
	for {
		select {
		case <-ctx.Done():
			return nil
		case packet, ok := <-packets:
			if !ok {
				return ErrPacketsExhausted
			}
			onPacket(packet)
		case task := <-r.tasks:
			task()
		}
	}
}

func (r *Reactor) shutdown(onStop func()) {
	close(r.stopping)
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	for drained := false; !drained; {
		select {
		case task := <-r.tasks:
			task()
		default:
			drained = true
		}
	}
	if onStop != nil {
		onStop()
	}
}

// ErrPacketsExhausted reports that the virtual interface stopped producing packets.
var ErrPacketsExhausted = errors.New("virtual interface read sequence ended")
