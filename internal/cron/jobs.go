package cron

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flemzord/pigram/internal/clone"
)

// Runner executes one clone job. *clone.Cloner implements it.
type Runner interface {
	Run(ctx context.Context, job clone.Job, observer clone.Observer) (clone.Result, error)
}

// CloneJob incrementally clones one chat pair. Each run resumes from the
// pair's checkpoint, so a tick only copies what arrived since the last one.
type CloneJob struct {
	JobName      string
	ScheduleExpr string
	Job          clone.Job
	Runner       Runner
	Observer     clone.Observer
	Logger       *slog.Logger
}

// Compile-time interface check.
var _ Job = (*CloneJob)(nil)

// Name implements Job.
func (j *CloneJob) Name() string { return j.JobName }

// Schedule implements Job.
func (j *CloneJob) Schedule() string { return j.ScheduleExpr }

// Run implements Job. A pair already being cloned is skipped without error.
func (j *CloneJob) Run(ctx context.Context) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := j.Runner.Run(ctx, j.Job, j.Observer)
	if errors.Is(err, clone.ErrAlreadyRunning) {
		logger.Warn("cron: pair already being cloned, skipping", "job", j.JobName)
		return nil
	}
	if err != nil {
		return err
	}
	if res.Processed > 0 {
		logger.Info("cron: clone job synced",
			"job", j.JobName,
			"processed", res.Processed,
			"errors", res.Errors,
			"last_id", res.LastID,
		)
	}
	return nil
}
