package resilience

import (
	"context"

	"github.com/cenkalti/backoff/v5"
)

// Retry calls fn until it succeeds, fails with an error retryable rejects, or the policy's
// attempts are spent. The returned int is the number of attempts made.
func Retry[T any](ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	policy = NormalizeRetryPolicy(policy)

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = policy.BaseDelay
	schedule.MaxInterval = policy.MaxDelay
	schedule.Multiplier = policy.Multiplier
	schedule.RandomizationFactor = 0

	attempts := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		out, err := fn(ctx, attempts)
		if err == nil {
			return out, nil
		}
		if retryable != nil && !retryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	},
		backoff.WithBackOff(schedule),
		backoff.WithMaxTries(uint(policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return result, attempts, err
}
