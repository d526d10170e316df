package repository

import (
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/domain/bus"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Leaderboards.
type Option func(*Leaderboards)

// WithMaxSize caps every board at n entries.
func WithMaxSize(n int) Option {
	return func(s *Leaderboards) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithStore persists the boards through kv.
func WithStore(kv storage.KV) Option {
	return func(s *Leaderboards) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// WithBus publishes leaderboard updates on b.
func WithBus(b bus.Bus) Option {
	return func(s *Leaderboards) {
		s.bus = bus.OrNop(b)
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Leaderboards) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Leaderboards) {
		if now != nil {
			s.now = now
		}
	}
}
