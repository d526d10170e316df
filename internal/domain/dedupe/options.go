package dedupe

// Option tunes the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many interaction ids are remembered. Once full the
// oldest id is forgotten and may be accepted again. Zero or less keeps every
// id for the life of the process.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
