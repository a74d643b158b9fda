package httputil

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// MaxRetryAfter caps server-provided Retry-After waits.
const MaxRetryAfter = 30 * time.Second

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err, or an error it wraps, is a [RetryableError].
func IsRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

// Retry runs fn up to attempts times. Only retryable errors are retried; any
// other error is returned at once. The delay doubles after every failure.
// It returns the last error, or ctx.Err() if ctx ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			wait := delay
			var rl *errors.RateLimitedError
			if stderrors.As(lastErr, &rl) && rl.RetryAfter > 0 {
				wait = min(time.Duration(rl.RetryAfter)*time.Second, MaxRetryAfter)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff calls [Retry] with 3 attempts and a 1s initial delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}
