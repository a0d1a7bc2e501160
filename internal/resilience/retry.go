package resilience

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry runs fn with exponential backoff, up to maxAttempts total
// attempts. fn must mark transient failures with retry.RetryableError;
// anything else aborts immediately. Used for the network stages of the
// assistant pipeline, which are each independently retryable.
func Retry(ctx context.Context, maxAttempts uint64, base time.Duration, fn func(context.Context) error) error {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	b := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(base))
	return retry.Do(ctx, b, fn)
}

// Transient marks an error as retryable for Retry.
func Transient(err error) error {
	return retry.RetryableError(err)
}
