package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/cron"
	"github.com/flemzord/pigram/internal/render"
)

// ErrNoJobs is returned by Sync when the configuration lists no jobs.
var ErrNoJobs = errors.New("no jobs configured; add a jobs section to the configuration")

// SyncParams selects how Sync runs.
type SyncParams struct {
	// Once runs every job a single time, in order, then returns.
	Once bool
	// Jobs restricts the run to the named jobs. Empty means all.
	Jobs []string
}

// Sync runs the configured jobs incrementally: once, or on their schedules
// until ctx is cancelled.
func Sync(ctx context.Context, e *Env, client clone.Client, params SyncParams) error {
	jobs := e.Config.Jobs
	if len(params.Jobs) > 0 {
		jobs = jobs[:0:0]
		for _, name := range params.Jobs {
			j, ok := e.Config.Job(name)
			if !ok {
				return fmt.Errorf("unknown job %q", name)
			}
			jobs = append(jobs, j)
		}
	}
	if len(jobs) == 0 {
		return ErrNoJobs
	}

	t, err := e.StartTelemetry(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = t.Close(context.WithoutCancel(ctx)) }()

	cloner, err := e.NewCloner(client)
	if err != nil {
		return err
	}
	defer cloner.Stop()

	printer := render.NewPrinter(e.Stdout, 0)
	sched := cron.NewScheduler(e.Logger)
	for _, j := range jobs {
		if err := sched.RegisterJob(&cron.CloneJob{
			JobName:      j.Name,
			ScheduleExpr: j.Schedule,
			Job:          j.CloneJob(),
			Runner:       cloner,
			Observer:     e.observer(j.Name, t, printer),
			Logger:       e.Logger,
		}); err != nil {
			return err
		}
	}

	if params.Once {
		return sched.RunAll(ctx)
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	e.Logger.Info("sync running; press Ctrl-C to stop", "jobs", len(jobs))
	<-ctx.Done()
	return sched.Stop(context.WithoutCancel(ctx))
}
