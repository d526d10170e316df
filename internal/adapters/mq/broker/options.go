package broker

import "github.com/okian/sportiq/pkg/logger"

// Option applies a configuration option to the Broker.
type Option func(*Broker)

// WithShards sets the number of shard queues, and so of delivery goroutines.
func WithShards(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.shardCount = n
		}
	}
}

// WithQueueCapacity bounds each shard queue.
func WithQueueCapacity(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.queueCapacity = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}
