package clone

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBatchSize     = 100
	defaultDelay         = 800 * time.Millisecond
	defaultCooldownEvery = 3000
	defaultCooldown      = 500 * time.Second
	defaultFetchAttempts = 5
	defaultRetryBackoff  = time.Second

	tracerName = "github.com/flemzord/pigram/internal/clone"
)

// Options are the tunables of a run. They are used as given; DefaultOptions
// returns the recommended values.
type Options struct {
	BatchSize     int
	Delay         time.Duration
	CooldownEvery int
	Cooldown      time.Duration
	// SendAttempts bounds tries of a failing (non-throttled) send before the
	// message is counted as an error and skipped. Values below 1 mean 1.
	SendAttempts int
	// FetchAttempts bounds tries of a failing fetch before the run aborts.
	FetchAttempts int
	// RetryBackoff is the first delay between failed attempts.
	RetryBackoff time.Duration
}

// DefaultOptions returns 100-message batches, a 0.8s delay per message and a
// 500s cooldown every 3000 messages.
func DefaultOptions() Options {
	return Options{
		BatchSize:     defaultBatchSize,
		Delay:         defaultDelay,
		CooldownEvery: defaultCooldownEvery,
		Cooldown:      defaultCooldown,
		SendAttempts:  1,
		FetchAttempts: defaultFetchAttempts,
		RetryBackoff:  defaultRetryBackoff,
	}
}

// Validate rejects values that cannot be honoured.
func (o Options) Validate() error {
	var errs []error
	if o.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("clone: batch size must not be negative, got %d", o.BatchSize))
	}
	if o.Delay < 0 {
		errs = append(errs, fmt.Errorf("clone: delay must not be negative, got %s", o.Delay))
	}
	if o.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("clone: cooldown must not be negative, got %s", o.Cooldown))
	}
	if o.RetryBackoff < 0 {
		errs = append(errs, errors.New("clone: retry backoff must not be negative"))
	}
	return errors.Join(errs...)
}

func (o Options) normalized() Options {
	if o.BatchSize == 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.SendAttempts < 1 {
		o.SendAttempts = 1
	}
	if o.FetchAttempts < 1 {
		o.FetchAttempts = 1
	}
	return o
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
