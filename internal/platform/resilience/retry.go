package resilience

import (
	"context"
	"time"
)

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// retry budget is spent. The last error is returned. The wait between
// attempts honours ctx.
func Retry(ctx context.Context, cfg RetryConfig, fn func(attempt int) (retryable bool, err error)) error {
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = LinearBackoff
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		retryable, err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == maxRetries {
			break
		}

		timer := time.NewTimer(backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
