package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Parser accepts five-field expressions and descriptors.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler manages periodic job execution using cron expressions.
// A single run lock serializes every job (TryLock, so a tick that finds
// another job running is skipped rather than queued).
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    []Job
	names   map[string]struct{}
	running sync.Mutex
	logger  *slog.Logger
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler. Jobs must be registered before Start().
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		names:  make(map[string]struct{}),
		logger: logger,
	}
}

// RegisterJob adds a job to the scheduler. Must be called before Start().
// Returns an error if a job with the same name is already registered.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("cron: duplicate job name %q", name)
	}

	s.names[name] = struct{}{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start begins executing registered jobs that have a schedule. Jobs receive
// a context derived from ctx that Stop cancels.
// Returns an error if any job has an invalid schedule expression.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.cron = cron.New(cron.WithParser(Parser))

	scheduled := 0
	for _, job := range s.jobs {
		if job.Schedule() == "" {
			continue
		}
		_, err := s.cron.AddFunc(job.Schedule(), func() {
			if !s.running.TryLock() {
				s.logger.Warn("cron: another job is running, skipping tick", "job", job.Name())
				return
			}
			defer s.running.Unlock()
			s.run(ctx, job)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("cron: invalid schedule for job %q: %w", job.Name(), err)
		}
		scheduled++
	}

	s.cron.Start()
	s.logger.Info("cron: scheduler started", "jobs", scheduled)
	return nil
}

// RunAll runs every registered job once, in registration order, waiting for
// any scheduled run in progress. It stops at the first cancellation and
// returns the joined job errors.
func (s *Scheduler) RunAll(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		s.running.Lock()
		err := s.run(ctx, job)
		s.running.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("cron: job %q: %w", job.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	s.logger.Debug("cron: job started", "job", job.Name())
	if err := job.Run(ctx); err != nil {
		s.logger.Error("cron: job failed", "job", job.Name(), "error", err)
		return err
	}
	s.logger.Debug("cron: job completed", "job", job.Name())
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("cron: scheduler stopped")
	}
	return nil
}
