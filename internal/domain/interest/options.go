package interest

import (
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/internal/domain/model"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithStore persists the profile through kv.
func WithStore(kv storage.KV) Option {
	return func(t *Tracker) {
		if kv != nil {
			t.kv = kv
		}
	}
}

// WithBus publishes profile updates on b.
func WithBus(b bus.Bus) Option {
	return func(t *Tracker) {
		t.bus = bus.OrNop(b)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithWeights overrides per-type weights. Unknown types and negative
// weights are ignored; types not listed keep their defaults.
func WithWeights(weights map[string]float64) Option {
	return func(t *Tracker) {
		for k, w := range weights {
			kind := model.InteractionType(k)
			if kind.Valid() && w >= 0 {
				t.weights[kind] = w
			}
		}
	}
}

// WithDecayRate sets the per-day multiplicative decay. Must be in (0, 1].
func WithDecayRate(rate float64) Option {
	return func(t *Tracker) {
		if rate > 0 && rate <= 1 {
			t.decayRate = rate
		}
	}
}

// WithHistoryCapacity bounds the interaction history.
func WithHistoryCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.historyCap = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}
