// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/pigram/internal/clone"
	"github.com/flemzord/pigram/internal/cron"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	mu       sync.Mutex
	calls    int
	lastCall time.Time
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.NameVal }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run implements cron.Job and increments the call counter.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.lastCall = time.Now()
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the time of the last Run call.
func (m *MockJob) LastCall() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCall
}

// MockRunner is a test double for cron.Runner.
type MockRunner struct {
	Result clone.Result
	Err    error

	mu   sync.Mutex
	jobs []clone.Job
}

// Compile-time interface check.
var _ cron.Runner = (*MockRunner)(nil)

// Run implements cron.Runner.
func (m *MockRunner) Run(_ context.Context, job clone.Job, _ clone.Observer) (clone.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return m.Result, m.Err
}

// Jobs returns every job passed to Run.
func (m *MockRunner) Jobs() []clone.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clone.Job(nil), m.jobs...)
}
