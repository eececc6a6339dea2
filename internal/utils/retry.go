package utils

import (
	"context"  // Cancellation of the retry loop
	"net/http" // Status codes
	"time"     // Backoff base

	"github.com/sethvargo/go-retry" // Bounded exponential backoff
)

// Retryable marks err as worth another attempt
func Retryable(err error) error {
	return retry.RetryableError(err)
}

// RetryableStatus reports whether an HTTP status signals a transient failure
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Retry runs fn at most attempts times with exponential backoff starting at base.
// Only errors wrapped with Retryable are retried.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))
	return retry.Do(ctx, backoff, fn)
}
