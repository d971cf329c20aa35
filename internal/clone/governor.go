package clone

import (
	"context"
	"time"
)

// SleepFunc suspends for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc. Non-positive durations only check ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GovernorConfig holds the pacing thresholds.
type GovernorConfig struct {
	// Delay is slept after every processed message.
	Delay time.Duration
	// CooldownEvery triggers a cooldown whenever the processed counter is a
	// multiple of it. Zero or negative disables cooldowns.
	CooldownEvery int
	// Cooldown is the length of the periodic pause.
	Cooldown time.Duration
	// Sleep overrides the timer-based sleep. Nil uses Sleep.
	Sleep SleepFunc
}

// Governor layers three protections against server-side rate limiting: a
// fixed per-message delay, a periodic long cooldown, and exact backoff on
// throttle signals. It is owned by a single run and is not safe for
// concurrent use.
type Governor struct {
	cfg       GovernorConfig
	processed int
}

// NewGovernor returns a governor with a zero processed counter.
func NewGovernor(cfg GovernorConfig) *Governor {
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	return &Governor{cfg: cfg}
}

// Processed returns the number of messages counted so far.
func (g *Governor) Processed() int { return g.processed }

// ThrottleAfterMessage counts one processed message and sleeps the fixed delay.
func (g *Governor) ThrottleAfterMessage(ctx context.Context) error {
	g.processed++
	if g.cfg.Delay <= 0 {
		return ctx.Err()
	}
	return g.cfg.Sleep(ctx, g.cfg.Delay)
}

// CooldownDue reports whether the next MaybeCooldown call will pause.
func (g *Governor) CooldownDue() bool {
	return g.cfg.CooldownEvery > 0 &&
		g.cfg.Cooldown > 0 &&
		g.processed > 0 &&
		g.processed%g.cfg.CooldownEvery == 0
}

// CooldownDuration returns the configured cooldown.
func (g *Governor) CooldownDuration() time.Duration { return g.cfg.Cooldown }

// MaybeCooldown pauses for the cooldown duration when the processed counter
// sits on a multiple of the threshold. It reports whether it paused.
func (g *Governor) MaybeCooldown(ctx context.Context) (bool, error) {
	if !g.CooldownDue() {
		return false, nil
	}
	return true, g.cfg.Sleep(ctx, g.cfg.Cooldown)
}

// HandleThrottle suspends for exactly the wait the server asked for.
func (g *Governor) HandleThrottle(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return ctx.Err()
	}
	return g.cfg.Sleep(ctx, wait)
}

// Backoff suspends between retries of a failed remote call.
func (g *Governor) Backoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return g.cfg.Sleep(ctx, d)
}
