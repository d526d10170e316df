package service

import (
	"math/rand"
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore makes the service persist through kv instead of opening the
// configured backend. The caller keeps ownership of kv.
func WithStore(kv storage.KV) Option {
	return func(s *Service) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source shared by every component.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandSource pins the discovery term of the ranker.
func WithRandSource(src rand.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.rand = src
		}
	}
}
