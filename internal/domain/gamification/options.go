package gamification

import (
	"math"
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Leveler.
type Option func(*Leveler)

// WithCurve sets the level curve threshold = base * level^multiplier.
// Both values must be positive.
func WithCurve(base, multiplier float64) Option {
	return func(l *Leveler) {
		if base > 0 && multiplier > 0 {
			l.base = base
			l.multiplier = multiplier
		}
	}
}

// WithMaxGrant caps the amount a single GainXP call may carry. Non-positive
// or non-finite values keep the default.
func WithMaxGrant(limit float64) Option {
	return func(l *Leveler) {
		if limit > 0 && !math.IsInf(limit, 0) {
			l.maxGrant = limit
		}
	}
}

// WithBadges replaces the badge catalog. Badges without an id, an action or
// a positive threshold are skipped.
func WithBadges(badges []Badge) Option {
	return func(l *Leveler) {
		if badges == nil {
			return
		}
		l.badges = l.badges[:0:0]
		for _, b := range badges {
			b.Action = normalizeAction(b.Action)
			if b.ID == "" || b.Action == "" || b.Threshold <= 0 || b.XPReward < 0 {
				continue
			}
			l.badges = append(l.badges, b)
		}
	}
}

// WithStore persists the state through kv.
func WithStore(kv storage.KV) Option {
	return func(l *Leveler) {
		if kv != nil {
			l.kv = kv
		}
	}
}

// WithBus publishes xp, level and badge events on b.
func WithBus(b bus.Bus) Option {
	return func(l *Leveler) {
		l.bus = bus.OrNop(b)
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Leveler) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Leveler) {
		if now != nil {
			l.now = now
		}
	}
}
