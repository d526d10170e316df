package bus

import "github.com/okian/sportiq/pkg/logger"

// Option applies a configuration option to a bus.
type Option func(*options)

type options struct {
	logger logger.Logger
}

// WithLogger sets the logger used to report handler panics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
