package resilience

import (
	"context"
	"errors"
	"time"
)

// ErrRetriesExhausted wraps the last error once every attempt has failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy is a bounded exponential backoff: attempt n waits
// BaseDelay * 2^n, capped at MaxDelay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryAfterHint lets an error override the computed backoff, e.g. from a
// Retry-After header.
type RetryAfterHint interface {
	RetryAfter() time.Duration
}

func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) delayFor(attempt int, err error) time.Duration {
	var hint RetryAfterHint
	if errors.As(err, &hint) {
		if d := hint.RetryAfter(); d > 0 {
			if p.MaxDelay > 0 && d > p.MaxDelay {
				return p.MaxDelay
			}
			return d
		}
	}
	return p.Backoff(attempt)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// context ends, or MaxRetries retries have been spent.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	return retryWithSleep(ctx, policy, retryable, fn, sleepContext)
}

func retryWithSleep(
	ctx context.Context,
	policy RetryPolicy,
	retryable func(error) bool,
	fn func(ctx context.Context, attempt int) error,
	sleep func(context.Context, time.Duration) error,
) error {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		if err := sleep(ctx, policy.delayFor(attempt, err)); err != nil {
			return errors.Join(lastErr, err)
		}
	}

	return errors.Join(ErrRetriesExhausted, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
