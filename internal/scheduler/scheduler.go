// Package scheduler runs the periodic maintenance jobs of the service on
// cron schedules: the interest decay sweep and the daily and weekly board
// resets.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/sportiq/internal/adapters/repository"
	"github.com/okian/sportiq/internal/config"
	"github.com/okian/sportiq/pkg/logger"
	"github.com/okian/sportiq/pkg/metrics"
)

// Job names.
const (
	JobDecaySweep  = "decay_sweep"
	JobDailyReset  = "daily_reset"
	JobWeeklyReset = "weekly_reset"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	DecaySweep(ctx context.Context) (int, error)
	ResetBoard(ctx context.Context, board repository.Board) error
}

// Scheduler owns a cron runner. Runs of the same job never overlap; a tick
// arriving while the previous run is still busy is skipped.
type Scheduler struct {
	mu       sync.Mutex
	jobs     Jobs
	cfg      config.SchedulerConfig
	location *time.Location
	cron     *cron.Cron
	entries  map[string]cron.EntryID
	ctx      context.Context
	started  bool
	logger   logger.Logger
}

// New creates a Scheduler for jobs. Specs default to the config defaults.
func New(jobs Jobs, opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:     jobs,
		cfg:      config.New().Scheduler,
		location: time.UTC,
		entries:  make(map[string]cron.EntryID),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s
}

// Start registers every job with a non-empty spec and starts the runner.
// A disabled scheduler starts nothing and returns nil.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if !s.cfg.Enabled {
		s.logger.Info(ctx, "scheduler disabled")
		return nil
	}

	cl := cronLogger{ctx: ctx, l: s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	// Jobs run detached from ctx until Stop.
	s.ctx = context.WithoutCancel(ctx)

	specs := map[string]string{
		JobDecaySweep:  s.cfg.DecaySweep,
		JobDailyReset:  s.cfg.DailyReset,
		JobWeeklyReset: s.cfg.WeeklyReset,
	}
	for _, name := range []string{JobDecaySweep, JobDailyReset, JobWeeklyReset} {
		spec := specs[name]
		if spec == "" {
			continue
		}
		id, err := c.AddFunc(spec, func() { _ = s.run(s.ctx, name) })
		if err != nil {
			s.entries = make(map[string]cron.EntryID)
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidSpec, name, spec, err)
		}
		s.entries[name] = id
		s.logger.Info(ctx, "job scheduled", logger.String("job", name), logger.String("spec", spec))
	}

	c.Start()
	s.cron = c
	s.started = true
	return nil
}

// Stop halts the runner and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.started = false
	s.cron = nil
	s.entries = make(map[string]cron.EntryID)
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		s.logger.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Scheduled returns the names of the registered jobs, sorted.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the next activation of job, zero when it is not scheduled.
func (s *Scheduler) Next(job string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[job]
	if !ok || s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// RunNow runs job synchronously, whether or not it is scheduled.
func (s *Scheduler) RunNow(ctx context.Context, job string) error {
	switch job {
	case JobDecaySweep, JobDailyReset, JobWeeklyReset:
		return s.run(ctx, job)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
}

func (s *Scheduler) run(ctx context.Context, job string) error {
	start := time.Now()
	var err error
	switch job {
	case JobDecaySweep:
		var visited int
		visited, err = s.jobs.DecaySweep(ctx)
		if err == nil {
			s.logger.Info(ctx, "decay sweep done", logger.Int("profiles", visited))
		}
	case JobDailyReset:
		err = s.jobs.ResetBoard(ctx, repository.BoardDaily)
	case JobWeeklyReset:
		err = s.jobs.ResetBoard(ctx, repository.BoardWeekly)
	}

	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
		metrics.RecordErrorByComponent("scheduler", job)
		s.logger.Error(ctx, "job failed", logger.String("job", job), logger.Duration("elapsed", elapsed), logger.Error(err))
	} else {
		s.logger.Debug(ctx, "job finished", logger.String("job", job), logger.Duration("elapsed", elapsed))
	}
	metrics.RecordSchedulerRun(job, status, float64(elapsed.Milliseconds()))
	return err
}

// cronLogger routes the runner's own messages through the service logger.
type cronLogger struct {
	ctx context.Context
	l   logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(c.ctx, "cron: "+msg, fields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(c.ctx, "cron: "+msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, logger.Any(key, kv[i+1]))
	}
	return out
}
