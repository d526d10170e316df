package scheduler

import (
	"time"

	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/pkg/logger"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithConfig sets the cron specs. An empty spec leaves its job unscheduled.
func WithConfig(cfg config.SchedulerConfig) Option {
	return func(s *Scheduler) {
		s.cfg = cfg
	}
}

// WithLocation evaluates cron specs in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
