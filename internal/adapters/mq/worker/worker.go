// Package worker drains queues into an event handler on dedicated goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.Event

// Handler processes a single event.
type Handler func(ctx context.Context, e Event) error

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events from one queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the event in flight, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for a single queue. Events are handled
// one at a time, in dequeue order.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

var _ Worker = (*InMemoryWorker)(nil)

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, handler Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		handler:  handler,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event",
					logger.String("eventID", event.ID),
					logger.String("topic", event.Topic),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) (err error) { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "handler_error")
		}
	}()

	return w.handler(ctx, event)
}

// Pool runs one worker per queue, so each queue keeps its order.
type Pool struct {
	workers []*InMemoryWorker
	queues  []Queue

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewPool creates a pool with one worker bound to each queue. Options are
// applied to every worker.
func NewPool(queues []Queue, handler Handler, opts ...Option) *Pool {
	p := &Pool{
		workers: make([]*InMemoryWorker, len(queues)),
		queues:  queues,
	}

	for i, q := range queues {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, handler, wopts...)
	}

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes every closable queue, stops the workers and waits for
// them to exit, bounded by ctx and an internal timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	var errs []error
	for _, q := range p.queues {
		if closer, ok := q.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close queue: %w", err))
			}
		}
	}

	p.mu.Lock()
	started := p.started
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	if !started {
		return errors.Join(errs...)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	stopped := true
	for _, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			stopped = false
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		}
	}
	if stopped {
		metrics.UpdateWorkerActiveCount(0)
	}
	return errors.Join(errs...)
}
