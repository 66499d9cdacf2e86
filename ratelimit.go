package notion

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter spaces outgoing requests so the client stays under Notion's
// documented average of 3 requests per second. Burst is 1, so consecutive
// requests are at least 1/rps apart. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps requests per second.
// Non-positive rates fall back to the Notion default of 3.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		rps = 3
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Wait blocks until the next request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent immediately, consuming the
// slot when it may. Used by callers that prefer to skip rather than block.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Limit returns the configured rate in requests per second.
func (r *RateLimiter) Limit() float64 {
	return float64(r.limiter.Limit())
}
