package scheduler

import (
	"context"
	"time"
)

const DefaultTickInterval = 1 * time.Second

// ProgressReporter receives cooldown progress. CooldownProgress is called about
// once per tick interval; CooldownCompleted exactly once when the wait ends normally.
type ProgressReporter interface {
	CooldownProgress(remaining time.Duration)
	CooldownCompleted()
}

// Waiter is what the claim loop needs from a cooldown scheduler.
type Waiter interface {
	Await(ctx context.Context, nextAllowedAt time.Time) error
}

// Cooldown suspends the caller until a server-provided claim time is reached.
type Cooldown struct {
	reporter ProgressReporter
	interval time.Duration
	now      func() time.Time
}

type CooldownOption func(*Cooldown)

// WithTickInterval changes the progress granularity.
func WithTickInterval(interval time.Duration) CooldownOption {
	return func(c *Cooldown) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

func WithClock(now func() time.Time) CooldownOption {
	return func(c *Cooldown) {
		c.now = now
	}
}

// NewCooldown creates a scheduler; a nil reporter disables progress output.
func NewCooldown(reporter ProgressReporter, opts ...CooldownOption) *Cooldown {
	c := &Cooldown{
		reporter: reporter,
		interval: DefaultTickInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Await returns immediately when nextAllowedAt is zero or not in the future.
// Otherwise it blocks until the wall clock reaches nextAllowedAt, reporting the
// remaining time on every tick, or until ctx is done.
func (c *Cooldown) Await(ctx context.Context, nextAllowedAt time.Time) error {
	if nextAllowedAt.IsZero() || !nextAllowedAt.After(c.now()) {
		return nil
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		remaining := nextAllowedAt.Sub(c.now())
		if remaining <= 0 {
			if c.reporter != nil {
				c.reporter.CooldownCompleted()
			}
			return nil
		}
		if c.reporter != nil {
			c.reporter.CooldownProgress(remaining)
		}

		// Never sleep past the deadline, so the caller resumes on time.
		timer.Reset(min(c.interval, remaining))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type multiReporter []ProgressReporter

// MultiReporter fans progress out to every non-nil reporter.
func MultiReporter(reporters ...ProgressReporter) ProgressReporter {
	var out multiReporter
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m multiReporter) CooldownProgress(remaining time.Duration) {
	for _, r := range m {
		r.CooldownProgress(remaining)
	}
}

func (m multiReporter) CooldownCompleted() {
	for _, r := range m {
		r.CooldownCompleted()
	}
}
