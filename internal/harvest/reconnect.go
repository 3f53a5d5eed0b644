package harvest

import (
	"context"
	"time"
)

// FixedDelayPolicy retries with a constant pause. MaxAttempts <= 0 means
// unbounded, which is the production default: the checkpoint guarantees safe
// re-entry, so transport errors are never surfaced as a run failure.
type FixedDelayPolicy struct {
	Pause       time.Duration
	MaxAttempts int
}

// NewFixedDelayPolicy returns the default unbounded policy.
func NewFixedDelayPolicy(pause time.Duration) *FixedDelayPolicy {
	return &FixedDelayPolicy{Pause: pause}
}

// ShouldRetry reports whether the 1-based attempt may proceed.
func (p *FixedDelayPolicy) ShouldRetry(attempt int) bool {
	return p.MaxAttempts <= 0 || attempt <= p.MaxAttempts
}

// Delay returns the constant pause between attempts.
func (p *FixedDelayPolicy) Delay() time.Duration {
	return p.Pause
}

// sleep pauses for d or until the context finishes.
func sleep(ctx context.Context, d time.Duration) error {
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
