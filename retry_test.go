package notion

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedJitterPolicy(config RetryConfig) *DefaultRetryPolicy {
	policy := NewDefaultRetryPolicy(config)
	// 0.5 maps to zero jitter, making backoff deterministic
	policy.Jitter = func() float64 { return 0.5 }
	policy.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return policy
}

func TestBackoffDuration(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{
		MaxRetries:        3,
		BaseBackoff:       100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	})

	assert.Equal(t, time.Duration(0), policy.BackoffDuration(1))
	assert.Equal(t, 100*time.Millisecond, policy.BackoffDuration(2))
	assert.Equal(t, 200*time.Millisecond, policy.BackoffDuration(3))
	assert.Equal(t, 400*time.Millisecond, policy.BackoffDuration(4))

	// Capped at MaxBackoff
	assert.Equal(t, time.Second, policy.BackoffDuration(10))
}

func TestBackoffJitterBounds(t *testing.T) {
	policy := NewDefaultRetryPolicy(RetryConfig{
		MaxRetries:        3,
		BaseBackoff:       100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
	})

	for i := 0; i < 100; i++ {
		d := policy.BackoffDuration(2)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestShouldRetryIdempotent(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2.0})
	ctx := context.Background()

	serverErr := &HTTPError{StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
	rateLimitErr := &RateLimitError{Message: "slow down"}
	notFoundErr := &NotFoundError{Message: "gone"}
	badRequestErr := &ValidationError{Message: "bad payload"}

	assert.True(t, policy.ShouldRetry(ctx, serverErr, 1, true))
	assert.True(t, policy.ShouldRetry(ctx, rateLimitErr, 1, true))
	assert.False(t, policy.ShouldRetry(ctx, notFoundErr, 1, true))
	assert.False(t, policy.ShouldRetry(ctx, badRequestErr, 1, true))

	// Attempts past the budget never retry
	assert.False(t, policy.ShouldRetry(ctx, serverErr, 4, true))
}

func TestShouldRetryNonIdempotent(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2.0})
	ctx := context.Background()

	// A 5xx may have landed the write, so creation requests stop here
	serverErr := &HTTPError{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"}
	assert.False(t, policy.ShouldRetry(ctx, serverErr, 1, false))

	// Rate limiting happens before processing, safe either way
	assert.True(t, policy.ShouldRetry(ctx, &RateLimitError{}, 1, false))
}

func TestShouldRetryCancelledContext(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2.0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	serverErr := &HTTPError{StatusCode: http.StatusServiceUnavailable}
	assert.False(t, policy.ShouldRetry(ctx, serverErr, 1, true))
}

func TestExecuteWithRetrySucceedsAfterFailures(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 3, BaseBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2.0})

	var slept []time.Duration
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	calls := 0
	op := func(ctx context.Context, attempt int) (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{StatusCode: http.StatusServiceUnavailable}
		}
		return "ok", nil
	}

	result, err := ExecuteWithRetry(context.Background(), op, policy, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestExecuteWithRetryHonorsRetryAfter(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 3, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffMultiplier: 2.0})

	var slept []time.Duration
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	calls := 0
	op := func(ctx context.Context, attempt int) (int, error) {
		calls++
		if calls == 1 {
			return 0, &RateLimitError{RetryAfter: 5 * time.Second}
		}
		return 42, nil
	}

	result, err := ExecuteWithRetry(context.Background(), op, policy, true)
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	// The server-provided delay wins over the computed backoff
	require.Len(t, slept, 1)
	assert.Equal(t, 5*time.Second, slept[0])
}

func TestExecuteWithRetryGivesUp(t *testing.T) {
	policy := fixedJitterPolicy(RetryConfig{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 2.0})

	calls := 0
	wantErr := &HTTPError{StatusCode: http.StatusBadGateway}
	op := func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, wantErr
	}

	_, err := ExecuteWithRetry(context.Background(), op, policy, true)
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
	assert.Equal(t, 3, calls)
}

func TestIsRetryableErrorPatterns(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp 10.0.0.1:443: connection refused")))
	assert.True(t, isRetryableError(errors.New("read: i/o timeout")))
	assert.False(t, isRetryableError(errors.New("invalid character 'x'")))
	assert.False(t, isRetryableError(nil))
}

func TestExtractRateLimitInfo(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Limit", "3")
	resp.Header.Set("X-RateLimit-Remaining", "0")
	resp.Header.Set("Retry-After", "7")

	info := ExtractRateLimitInfo(resp)
	require.NotNil(t, info)
	assert.Equal(t, 3, info.Limit)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 7*time.Second, info.RetryAfter)

	assert.Nil(t, ExtractRateLimitInfo(&http.Response{Header: http.Header{}}))
	assert.Nil(t, ExtractRateLimitInfo(nil))
}
