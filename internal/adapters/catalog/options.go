package catalog

import (
	"time"

	"github.com/okian/sportiq/internal/adapters/storage"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithMaxItems bounds the pool; the oldest additions are evicted first.
func WithMaxItems(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithStore persists the pool through kv.
func WithStore(kv storage.KV) Option {
	return func(c *Catalog) {
		if kv != nil {
			c.kv = kv
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}
