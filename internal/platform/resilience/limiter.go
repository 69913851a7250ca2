package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RequestLimiter spaces out calls to a single upstream source. Every client
// owns its own limiter; there is no process-wide throttle state.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter admits at most perMinute calls per minute, evenly spaced.
// A non-positive perMinute disables limiting.
func NewRequestLimiter(perMinute int) *RequestLimiter {
	if perMinute <= 0 {
		return &RequestLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RequestLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)}
}

// Wait blocks until the next call is admitted or ctx is done.
func (l *RequestLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
