package scheduler

import "errors"

var (
	// ErrInvalidSpec is returned when a cron expression cannot be parsed.
	ErrInvalidSpec = errors.New("invalid cron spec")

	// ErrUnknownJob is returned by RunNow for a name that is not a job.
	ErrUnknownJob = errors.New("unknown job")
)
