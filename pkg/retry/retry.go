// Package retry provides an explicit retry policy: a bounded attempt count,
// a backoff function and a retryable-error predicate, consumed by Do.
package retry

import (
	"context"
	"time"
)

type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff returns the wait before the given attempt (1-based; called
	// after attempt n fails, before attempt n+1 runs).
	Backoff func(attempt int) time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(err error) bool
}

// Do runs fn under the policy, returning nil on the first success or the
// last error once attempts exhaust, the error turns non-retryable, or the
// context is done.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}

		if attempt == p.MaxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// ExponentialBackoff doubles the base delay per attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		delay := base
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay >= max {
				return max
			}
		}
		if delay > max {
			return max
		}
		return delay
	}
}

// LinearBackoff grows the delay by one step per attempt.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}
