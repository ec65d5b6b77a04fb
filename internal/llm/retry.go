package llm

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = time.Second
)

// RetryPolicy configures WithRetry. The n-th retry waits BaseDelay * 2^(n-1).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	IsRetryable func(error) bool
	Sleep       func(ctx context.Context, d time.Duration) error
	OnRetry     func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy retries rate-limited provider errors three times, waiting 1s, 2s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		IsRetryable: IsRateLimited,
	}
}

// WithRetry runs op until it succeeds, returns a non-retryable error, or the attempt budget
// is spent. The last error is returned unchanged. A context cancelled while waiting ends the
// loop with the context error.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), policy RetryPolicy) (T, error) {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	delay := policy.BaseDelay
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		if attempt >= attempts || policy.IsRetryable == nil || !policy.IsRetryable(err) {
			return zero, err
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, serr
		}
		delay *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
