// Package queue holds the per-shard event buffer behind the async broker.
package queue

import (
	"context"
	"sync"

	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/metrics"
)

const (
	defaultQueueCapacity = 4096
	defaultName          = "default"
)

// Event is the bus event carried by a shard.
type Event = model.Event

// Queue is one shard of the broker: a bounded FIFO that refuses work when
// full rather than stalling the publisher.
type Queue interface {
	// Enqueue reports whether e was accepted. A full or closed queue, or a
	// done ctx, rejects.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue streams events in arrival order until the queue is closed and
	// drained or ctx is done.
	Dequeue(ctx context.Context) <-chan Event

	Len(ctx context.Context) int

	// Close stops accepting events. Repeated calls are no-ops.
	Close() error

	IsClosed() bool
}

// InMemoryQueue is a Queue over a buffered channel. Metrics are reported
// under its name.
type InMemoryQueue struct {
	events   chan Event
	capacity int
	name     string

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity, name: defaultName}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)
	metrics.UpdateQueueCapacity(q.name, q.capacity)
	metrics.UpdateQueueSize(q.name, 0)
	return q
}

// Name is the shard label, e.g. "shard-3".
func (q *InMemoryQueue) Name() string { return q.name }

// Cap is the buffer size fixed at construction.
func (q *InMemoryQueue) Cap() int { return q.capacity }

func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) bool { //nolint:gocritic // hugeParam: events travel by value
	// The read lock keeps Close from closing the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	switch {
	case q.closed:
		return q.reject("closed")
	case ctx.Err() != nil:
		return q.reject("context_cancelled")
	}

	select {
	case q.events <- e:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(q.name, len(q.events))
		return true
	default:
		return q.reject("queue_full")
	}
}

func (q *InMemoryQueue) reject(reason string) bool {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
	return false
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go q.drain(ctx, out)
	return out
}

func (q *InMemoryQueue) drain(ctx context.Context, out chan<- Event) {
	defer close(out)
	for {
		var e Event
		var ok bool
		select {
		case <-ctx.Done():
			return
		case e, ok = <-q.events:
		}
		if !ok {
			return
		}
		metrics.RecordQueueDequeue()
		metrics.UpdateQueueSize(q.name, len(q.events))
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (q *InMemoryQueue) Len(context.Context) int {
	n := len(q.events)
	metrics.UpdateQueueSize(q.name, n)
	return n
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
