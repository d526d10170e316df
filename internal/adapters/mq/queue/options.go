package queue

// Option tunes an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the shard buffer. Non-positive values keep the default.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithName sets the metrics label of the shard.
func WithName(name string) Option {
	return func(q *InMemoryQueue) {
		if name != "" {
			q.name = name
		}
	}
}
