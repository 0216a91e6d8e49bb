package translate

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultAttempts bounds the calls made to one provider per request.
	DefaultAttempts = 2
	// DefaultBackoffStep is multiplied by the attempt number between calls.
	DefaultBackoffStep = 250 * time.Millisecond
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy runs a provider call with linear backoff: the wait after
// attempt n is Step*n. Every error is retried the same way.
type RetryPolicy struct {
	Attempts int
	Step     time.Duration
	// Sleep defaults to a timer that honours ctx cancellation.
	Sleep SleepFunc
}

// DefaultRetry returns the standard policy.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, Step: DefaultBackoffStep}
}

// call is one provider round trip. An empty string with nil error means the
// provider answered without a translation.
type call func(ctx context.Context) (string, error)

func (r RetryPolicy) do(ctx context.Context, fn call) Result {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return Empty()
			}
			return Ok(text)
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, r.Step*time.Duration(attempt)); err != nil {
			return Failed(err.Error())
		}
	}
	return Failed(lastErr.Error())
}
