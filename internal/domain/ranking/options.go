package ranking

import (
	"math/rand"
	"time"

	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithWeights overrides the scoring weights. Negative weights and a
// non-positive decay horizon are ignored field by field.
func WithWeights(w Weights) Option {
	return func(r *Ranker) {
		if w.Interest >= 0 {
			r.weights.Interest = w.Interest
		}
		if w.Recency >= 0 {
			r.weights.Recency = w.Recency
		}
		if w.Popularity >= 0 {
			r.weights.Popularity = w.Popularity
		}
		if w.Discovery >= 0 {
			r.weights.Discovery = w.Discovery
		}
		if w.DecayHours > 0 {
			r.weights.DecayHours = w.DecayHours
		}
	}
}

// WithRandSource replaces the source of the discovery term.
func WithRandSource(src rand.Source) Option {
	return func(r *Ranker) {
		if src != nil {
			r.rng = rand.New(src) //nolint:gosec // discovery jitter, not security sensitive
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithBus publishes recommendation results on b.
func WithBus(b bus.Bus) Option {
	return func(r *Ranker) {
		r.bus = bus.OrNop(b)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}
