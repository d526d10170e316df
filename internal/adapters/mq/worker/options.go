package worker

import "github.com/okian/sportiq/pkg/logger"

// Option tunes an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName labels the worker in logs; the broker names workers after their
// shard.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets where handler failures and panics are reported.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
