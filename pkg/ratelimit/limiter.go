package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the rate limit allows another request
	Wait(ctx context.Context) error
	// Done records that the request admitted by Wait has completed
	Done()
}

// FixedInterval enforces a minimum gap between the completion of one
// request and the start of the next. Idle time does not accumulate into
// a burst allowance.
//
// FixedInterval is not safe for concurrent use; requests through it are
// expected to be strictly sequential.
type FixedInterval struct {
	interval     time.Duration
	lastComplete time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFixedInterval creates a limiter allowing one request per interval
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Wait sleeps for whatever is left of the interval since the last completion
func (f *FixedInterval) Wait(ctx context.Context) error {
	if wait := f.remaining(); wait > 0 {
		return f.sleep(ctx, wait)
	}
	return ctx.Err()
}

// Done stamps the completion time, so a slow request pushes out the next send
func (f *FixedInterval) Done() {
	f.lastComplete = f.now()
}

func (f *FixedInterval) remaining() time.Duration {
	if f.lastComplete.IsZero() {
		return 0
	}
	return f.interval - f.now().Sub(f.lastComplete)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
