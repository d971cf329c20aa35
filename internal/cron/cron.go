// Package cron runs configured clone jobs on cron schedules for
// `pigram sync`. Jobs share one lock: two clones never run at once.
package cron

import "context"

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job (used for logging and dedup).
	Name() string

	// Schedule returns a cron expression or descriptor (e.g. "*/5 * * * *",
	// "@hourly", "@every 30m"). Empty means the job only runs through RunAll.
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}
