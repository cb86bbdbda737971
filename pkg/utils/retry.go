package utils

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrAttemptsExhausted is returned when every allowed attempt failed.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// RetryPolicy describes how a fallible operation is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first one.
	MaxAttempts uint64
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
	// MaxElapsedTime stops retrying once exceeded. Zero means no limit.
	MaxElapsedTime time.Duration
	// Jitter is the randomization factor applied to each wait, between 0 and 1.
	Jitter float64
	// OnRetry is called before each wait with the attempt that just failed.
	OnRetry func(attempt uint64, err error, wait time.Duration)
}

// Retry runs op until it succeeds, returns an error that retryable rejects,
// or the policy runs out of attempts. The error of the last attempt is
// returned, wrapped with ErrAttemptsExhausted when attempts ran out.
func Retry[T any](
	ctx context.Context, policy RetryPolicy, retryable func(error) bool, op func(context.Context) (T, error),
) (T, error) {
	var (
		result  T
		attempt uint64
		lastErr error
	)

	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 1
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(policy.BaseDelay),
		backoff.WithMaxInterval(policy.MaxDelay),
		backoff.WithMaxElapsedTime(policy.MaxElapsedTime),
		backoff.WithRandomizationFactor(policy.Jitter),
		backoff.WithMultiplier(2),
	), policy.MaxAttempts-1)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		attempt++

		var err error
		result, err = op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, wait time.Duration) {
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	if err == nil {
		return result, nil
	}

	if lastErr != nil && retryable(lastErr) && ctx.Err() == nil {
		return result, errors.Join(ErrAttemptsExhausted, lastErr)
	}

	return result, err
}
