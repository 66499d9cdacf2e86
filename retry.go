package notion

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy defines the strategy for retrying failed requests.
// This interface allows for custom retry logic while providing sensible defaults.
type RetryPolicy interface {
	// ShouldRetry determines if a request should be retried based on the
	// error, the attempt number, and whether replaying the request is safe.
	// Non-idempotent requests (creation POSTs) are retried only for errors
	// where the server is known not to have processed the request, such as
	// rate limiting.
	ShouldRetry(ctx context.Context, err error, attempt int, idempotent bool) bool

	// BackoffDuration calculates how long to wait before the next retry attempt.
	BackoffDuration(attempt int) time.Duration
}

// ContextSleeper is implemented by retry policies that control how the retry
// loop waits between attempts. Tests install a no-op sleep through this.
type ContextSleeper interface {
	SleepContext(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy implements exponential backoff with jitter.
// A 5xx on a non-idempotent request is not retried: the server may have
// applied the write before failing, and replaying it would duplicate it.
type DefaultRetryPolicy struct {
	config RetryConfig

	// Sleep waits between attempts. Replaceable in tests for determinism.
	Sleep func(ctx context.Context, d time.Duration) error

	// Jitter produces the random factor in [0, 1) for backoff spreading.
	// Replaceable in tests.
	Jitter func() float64
}

// NewDefaultRetryPolicy creates a new default retry policy with the given configuration.
func NewDefaultRetryPolicy(config RetryConfig) *DefaultRetryPolicy {
	return &DefaultRetryPolicy{
		config: config,
		Sleep:  sleepContext,
		Jitter: rand.Float64,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SleepContext waits for d or until ctx is done.
func (p *DefaultRetryPolicy) SleepContext(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

// ShouldRetry determines if a request should be retried.
func (p *DefaultRetryPolicy) ShouldRetry(ctx context.Context, err error, attempt int, idempotent bool) bool {
	// Don't retry if context is cancelled or deadline exceeded
	if ctx.Err() != nil {
		return false
	}

	// attempt is 1-based, so MaxRetries counts the retries after the first try
	if attempt > p.config.MaxRetries {
		return false
	}

	if !isRetryableError(err) {
		return false
	}

	if idempotent {
		return true
	}

	// For non-idempotent requests, only errors raised before the server
	// processed anything are safe to replay.
	switch e := err.(type) {
	case *RateLimitError:
		return true
	case *HTTPError:
		return !e.IsServerError()
	default:
		return false
	}
}

// BackoffDuration calculates the backoff duration for a given attempt using
// exponential backoff with jitter.
func (p *DefaultRetryPolicy) BackoffDuration(attempt int) time.Duration {
	if attempt <= 1 {
		return 0 // No backoff for first attempt
	}

	// baseBackoff * multiplier^(attempt-2)
	backoff := float64(p.config.BaseBackoff) * math.Pow(p.config.BackoffMultiplier, float64(attempt-2))

	if backoff > float64(p.config.MaxBackoff) {
		backoff = float64(p.config.MaxBackoff)
	}

	// ±25% jitter to avoid thundering herd
	jitterSource := p.Jitter
	if jitterSource == nil {
		jitterSource = rand.Float64
	}
	jitter := backoff * 0.25 * (jitterSource()*2 - 1)
	backoff += jitter

	if backoff < 0 {
		backoff = float64(p.config.BaseBackoff)
	}

	return time.Duration(backoff)
}

// isRetryableError determines if an error should trigger a retry attempt,
// assuming the request is safe to replay.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if isNetworkError(err) {
		return true
	}

	if httpErr, ok := err.(*HTTPError); ok {
		return isRetryableHTTPStatus(httpErr.StatusCode)
	}

	if _, ok := err.(*RateLimitError); ok {
		return true
	}

	switch err.(type) {
	case *TimeoutError, *NetworkError:
		return true
	case *ValidationError, *NotFoundError, *ConflictError,
		*AuthenticationError, *AuthorizationError, *SerializationError:
		return false
	}

	if err == context.Canceled || err == context.DeadlineExceeded {
		return false
	}

	// Check error message for common retryable patterns
	errMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection reset",
		"connection refused",
		"no such host",
		"timeout",
		"temporary failure",
		"server misbehaving",
		"i/o timeout",
		"network is unreachable",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// isNetworkError checks if an error is a network-level error.
func isNetworkError(err error) bool {
	errMsg := err.Error()

	networkPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection timeout",
		"dial tcp",
		"EOF",
	}

	for _, pattern := range networkPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// isRetryableHTTPStatus determines if an HTTP status code should trigger a retry.
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation[T any] func(ctx context.Context, attempt int) (T, error)

// ExecuteWithRetry executes an operation with retry logic according to the
// specified policy. The idempotent flag tells the policy whether replaying
// the operation after a possibly-processed failure is safe.
func ExecuteWithRetry[T any](ctx context.Context, operation RetryableOperation[T], policy RetryPolicy, idempotent bool) (T, error) {
	var lastErr error
	var result T

	for attempt := 1; ; attempt++ {
		result, err := operation(ctx, attempt)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !policy.ShouldRetry(ctx, err, attempt, idempotent) {
			break
		}

		backoffDuration := policy.BackoffDuration(attempt + 1)

		// A server-provided Retry-After wins over the computed backoff
		if rateLimitErr, ok := err.(*RateLimitError); ok {
			if rateLimitErr.RetryAfter > backoffDuration {
				backoffDuration = rateLimitErr.RetryAfter
			}
		}

		if backoffDuration > 0 {
			var sleepErr error
			if sleeper, ok := policy.(ContextSleeper); ok {
				sleepErr = sleeper.SleepContext(ctx, backoffDuration)
			} else {
				sleepErr = sleepContext(ctx, backoffDuration)
			}
			if sleepErr != nil {
				return result, sleepErr
			}
		}
	}

	return result, lastErr
}

// RateLimitInfo carries rate limit state extracted from response headers.
type RateLimitInfo struct {
	// Limit is the maximum number of requests allowed in the time window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// Reset is the time when the rate limit window resets.
	Reset time.Time

	// RetryAfter is the duration to wait before making another request.
	RetryAfter time.Duration
}

// ExtractRateLimitInfo extracts rate limit information from HTTP response
// headers, following the X-RateLimit-* and Retry-After conventions.
// Returns nil when no rate limit headers are present.
func ExtractRateLimitInfo(resp *http.Response) *RateLimitInfo {
	if resp == nil {
		return nil
	}

	info := &RateLimitInfo{}

	if limitStr := resp.Header.Get("X-RateLimit-Limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			info.Limit = limit
		}
	}

	if remainingStr := resp.Header.Get("X-RateLimit-Remaining"); remainingStr != "" {
		if remaining, err := strconv.Atoi(remainingStr); err == nil {
			info.Remaining = remaining
		}
	}

	if resetStr := resp.Header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetUnix, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			info.Reset = time.Unix(resetUnix, 0)
		}
	}

	if retryAfterStr := resp.Header.Get("Retry-After"); retryAfterStr != "" {
		if retryAfterSecs, err := strconv.Atoi(retryAfterStr); err == nil {
			info.RetryAfter = time.Duration(retryAfterSecs) * time.Second
		}
	}

	if info.Limit == 0 && info.Remaining == 0 && info.Reset.IsZero() && info.RetryAfter == 0 {
		return nil
	}

	return info
}
