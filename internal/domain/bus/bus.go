// Package bus defines the topic publish/subscribe contract that decouples
// the engagement components, plus a synchronous in-process implementation
// and a null object for when no bus is wired.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Handler receives events of one topic.
type Handler func(ctx context.Context, e model.Event)

// Bus is a topic-based publish/subscribe dispatcher.
//
// Delivery is at most once per subscriber and FIFO within a topic. No
// ordering is promised across topics.
type Bus interface {
	// Subscribe registers h for topic. Many handlers per topic are allowed.
	Subscribe(topic string, h Handler)

	// Publish delivers payload to every handler of topic.
	Publish(ctx context.Context, topic string, payload model.Payload)
}

// Local delivers events inline on the publisher's goroutine.
type Local struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
}

// NewLocal creates a synchronous bus.
func NewLocal(opts ...Option) *Local {
	o := newOptions(opts)
	return &Local{
		handlers: make(map[string][]Handler),
		logger:   o.logger,
	}
}

// Subscribe registers h for topic.
func (b *Local) Subscribe(topic string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], h)
	n := 0
	for _, hs := range b.handlers {
		n += len(hs)
	}
	b.mu.Unlock()
	metrics.UpdateBusSubscribers(n)
}

// Publish calls every handler of topic before returning. Handlers may publish
// further events; the registry lock is not held while they run.
func (b *Local) Publish(ctx context.Context, topic string, payload model.Payload) {
	e := model.NewEvent(topic, payload)
	metrics.RecordBusPublished(topic)
	Dispatch(ctx, e, b.Handlers(topic), b.logger)
}

// Handlers returns a snapshot of the handlers registered for topic.
func (b *Local) Handlers(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := b.handlers[topic]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// Dispatch invokes each handler in registration order. A panicking handler
// is recovered and logged; the remaining handlers still run.
func Dispatch(ctx context.Context, e model.Event, handlers []Handler, log logger.Logger) {
	for _, h := range handlers {
		if err := invoke(ctx, e, h); err != nil {
			metrics.RecordBusHandlerPanic(e.Topic)
			log.Error(ctx, "bus handler panicked",
				logger.String("topic", e.Topic),
				logger.String("eventID", e.ID),
				logger.Error(err),
			)
			continue
		}
		metrics.RecordBusDelivered(e.Topic)
	}
}

func invoke(ctx context.Context, e model.Event, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	h(ctx, e)
	return nil
}

type nop struct{}

func (nop) Subscribe(string, Handler)                      {}
func (nop) Publish(context.Context, string, model.Payload) {}

// Nop returns a Bus that accepts subscriptions and drops every publication.
func Nop() Bus { return nop{} }

// OrNop returns b, or the Nop bus when b is nil, so components can treat
// an absent collaborator as a silent one.
func OrNop(b Bus) Bus {
	if b == nil {
		return Nop()
	}
	return b
}
