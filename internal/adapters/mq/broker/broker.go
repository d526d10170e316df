// Package broker is the asynchronous bus: publications are queued per
// shard and delivered by one worker per shard, so a topic always maps to
// the same worker and keeps FIFO order.
package broker

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/sportiq/internal/adapters/mq/queue"
	"github.com/okian/sportiq/internal/adapters/mq/worker"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Default broker configuration constants.
const (
	defaultShards        = 4
	defaultQueueCapacity = 1024
)

// Broker implements bus.Bus on sharded queues.
type Broker struct {
	registry *bus.Local
	shards   []*queue.InMemoryQueue
	pool     *worker.Pool

	shardCount    int
	queueCapacity int

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	logger logger.Logger
}

var _ bus.Bus = (*Broker)(nil)

// New creates a broker and starts its workers. The workers stop on Close
// or when ctx is done.
func New(ctx context.Context, opts ...Option) *Broker {
	b := &Broker{
		shardCount:    defaultShards,
		queueCapacity: defaultQueueCapacity,
		logger:        logger.Nop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.registry = bus.NewLocal(bus.WithLogger(b.logger))
	b.shards = make([]*queue.InMemoryQueue, b.shardCount)
	queues := make([]worker.Queue, b.shardCount)
	for i := range b.shards {
		b.shards[i] = queue.NewInMemoryQueue(
			queue.WithCapacity(b.queueCapacity),
			queue.WithName("shard-"+strconv.Itoa(i)),
		)
		queues[i] = b.shards[i]
	}

	b.pool = worker.NewPool(queues, b.deliver, worker.WithLogger(b.logger))
	b.pool.Start(ctx)
	b.logger.Debug(ctx, "broker started",
		logger.Int("shards", b.Shards()),
		logger.Int("workers", b.pool.Size()),
		logger.Int("queueCapacity", b.queueCapacity),
	)

	return b
}

// Subscribe registers h for topic.
func (b *Broker) Subscribe(topic string, h bus.Handler) {
	b.registry.Subscribe(topic, h)
}

// Publish queues payload for delivery and returns without waiting. When the
// shard is full or the broker is closed the event is dropped.
func (b *Broker) Publish(ctx context.Context, topic string, payload model.Payload) {
	_ = b.TryPublish(ctx, topic, payload)
}

// TryPublish is Publish reporting the drop: ErrClosed after Close, ErrFull
// when the topic's shard has no room.
func (b *Broker) TryPublish(ctx context.Context, topic string, payload model.Payload) error {
	if b.closed.Load() {
		metrics.RecordBusDropped(topic, "closed")
		return ErrClosed
	}

	e := model.NewEvent(topic, payload)
	q := b.shards[b.shardFor(topic)]
	if !q.Enqueue(ctx, e) {
		metrics.RecordBusDropped(topic, "queue_full")
		b.logger.Warn(ctx, "event dropped",
			logger.String("topic", topic),
			logger.String("eventID", e.ID),
			logger.String("shard", q.Name()),
		)
		return ErrFull
	}
	metrics.RecordBusPublished(topic)
	return nil
}

func (b *Broker) shardFor(topic string) int {
	return int(xxhash.Sum64String(topic) % uint64(len(b.shards)))
}

func (b *Broker) deliver(ctx context.Context, e model.Event) error {
	bus.Dispatch(ctx, e, b.registry.Handlers(e.Topic), b.logger)
	return nil
}

// Pending returns the number of queued, undelivered events.
func (b *Broker) Pending(ctx context.Context) int {
	n := 0
	for _, q := range b.shards {
		n += q.Len(ctx)
	}
	return n
}

// Shards returns the number of shard queues.
func (b *Broker) Shards() int { return len(b.shards) }

// Close stops accepting publications and stops the workers. Events still
// queued are not delivered.
func (b *Broker) Close(ctx context.Context) error {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.closeErr = b.pool.Shutdown(ctx)
	})
	return b.closeErr
}
