package errors

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls how a transient store failure is retried.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below one mean one.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// Jitter is the fraction of each backoff that is randomized (0.0-1.0).
	Jitter float64
}

// DefaultRetry gives a store about ten seconds to become reachable.
var DefaultRetry = RetryConfig{
	MaxAttempts:    5,
	InitialBackoff: 250 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// RetryResult is the outcome of WithRetryContext.
type RetryResult[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// WithRetryContext calls fn until it succeeds, returns an error IsRetryable
// rejects, runs out of attempts, or ctx is done. Err is always a
// *CategorizedError.
func WithRetryContext[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func(context.Context) (T, error),
) RetryResult[T] {
	attempts := max(cfg.MaxAttempts, 1)
	backoff := cfg.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return retryFailure[T](err, CategoryUnavailable, attempt-1, "context cancelled")
		}

		value, err := fn(ctx)
		switch {
		case err == nil:
			return RetryResult[T]{Value: value, Attempts: attempt}
		case !IsRetryable(err):
			return retryFailure[T](err, Categorize(err), attempt, "")
		case attempt == attempts:
			return retryFailure[T](err, Categorize(err), attempt, "max retries exceeded")
		}

		select {
		case <-ctx.Done():
			return retryFailure[T](ctx.Err(), CategoryUnavailable, attempt, "context cancelled during backoff")
		case <-time.After(calculateBackoff(backoff, cfg.Jitter)):
		}
		backoff = min(time.Duration(float64(backoff)*cfg.BackoffFactor), cfg.MaxBackoff)
	}
}

func retryFailure[T any](err error, category Category, attempts int, reason string) RetryResult[T] {
	return RetryResult[T]{
		Err:      &CategorizedError{Err: err, Category: category, Attempts: attempts, Context: reason},
		Attempts: attempts,
	}
}

// calculateBackoff returns base shifted by up to base*jitter either way.
func calculateBackoff(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}
	return time.Duration(float64(base) * (1 + jitter*(rand.Float64()*2-1)))
}
