// Package httputil provides retry helpers for the HTTP collaborators of the
// report pipeline.
//
// Transient failures (connection errors, 5xx responses, 429 responses) are
// wrapped with [Retryable]; [Retry] re-runs an operation only for those:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Get(ctx, url, &v)
//	})
//
// A rate-limited failure that carries a Retry-After hint waits for that long
// instead of the backoff delay, capped at [MaxRetryAfter].
package httputil
