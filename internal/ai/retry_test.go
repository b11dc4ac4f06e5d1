package ai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfterFromMessage(t *testing.T) {
	tests := []struct {
		message  string
		expected time.Duration
	}{
		{"rate limit exceeded, try again in 12 minutes", 12 * time.Minute},
		{"quota exceeded, try again in 720 seconds", 720 * time.Second},
		{"rate limit hit, try again in 1 hour", time.Hour},
		{"please wait 5 minutes before retrying", 5 * time.Minute},
		{"rate limit exceeded", 0},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseRetryAfterFromMessage(tt.message))
		})
	}
}

func TestClassifyErrorWithAnthropicSDKError(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		retryAfter   string
		expectedType ErrorType
		expectedWait time.Duration
	}{
		{"429 with Retry-After", http.StatusTooManyRequests, "12", ErrorRateLimit, 12 * time.Second},
		{"429 without Retry-After", http.StatusTooManyRequests, "", ErrorRateLimit, 0},
		{"500", http.StatusInternalServerError, "", ErrorTransient, 0},
		{"529 overloaded", 529, "", ErrorTransient, 0},
		{"400", http.StatusBadRequest, "", ErrorInvalid, 0},
		{"401", http.StatusUnauthorized, "", ErrorAuth, 0},
		{"403", http.StatusForbidden, "", ErrorAuth, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.statusCode, Header: http.Header{}}
			if tt.retryAfter != "" {
				resp.Header.Set("Retry-After", tt.retryAfter)
			}
			apiErr := &anthropic.Error{StatusCode: tt.statusCode, Response: resp}

			errType, wait := classifyError(apiErr)
			assert.Equal(t, tt.expectedType, errType, "got %s", errType)
			assert.Equal(t, tt.expectedWait, wait)
		})
	}
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("503 Service Unavailable"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("401 Unauthorized"), false},
		{errors.New("something odd"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, isRetriableError(tt.err), "%v", tt.err)
	}
}

func TestCircuitBreakerTransitions(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker(2, 1, time.Minute, nil)
	cb.now = func() time.Time { return now }

	require.NoError(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState())
	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.GetState())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	cb.RecordSuccess()
	state, failures, _ := cb.GetMetrics()
	assert.Equal(t, CircuitClosed, state)
	assert.Zero(t, failures)
}

func retryTestClient(retry RetryConfig) *Client {
	return newClient(nil, &Config{Model: "test-model", Retry: retry})
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
		Timeout:           time.Second,
	}
}

func TestRetryWithBackoffRetriesTransient(t *testing.T) {
	c := retryTestClient(fastRetry())
	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("502 bad gateway")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	c := retryTestClient(fastRetry())
	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		return errors.New("401 invalid x-api-key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	c := retryTestClient(fastRetry())
	calls := 0
	err := c.retryWithBackoff(context.Background(), "decide", func(context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "decide failed after 3 attempts")
}

func TestRetryWithBackoffCircuitOpen(t *testing.T) {
	retry := fastRetry()
	retry.MaxRetries = 0
	retry.CircuitBreakerEnabled = true
	retry.FailureThreshold = 1
	retry.SuccessThreshold = 1
	retry.OpenTimeout = time.Hour
	c := retryTestClient(retry)

	_ = c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		return errors.New("503 service unavailable")
	})
	calls := 0
	err := c.retryWithBackoff(context.Background(), "test", func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls)
	assert.ErrorIs(t, c.HealthCheck(context.Background()), ErrCircuitOpen)
}

func TestRetryWithBackoffRateLimiter(t *testing.T) {
	c := newClient(nil, &Config{Retry: fastRetry(), RateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 1}})
	require.NotNil(t, c.limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, c.retryWithBackoff(ctx, "first", func(context.Context) error { return nil }))
	err := c.retryWithBackoff(ctx, "second", func(context.Context) error { return nil })
	assert.Error(t, err, "second call must wait about a second for a token")
}
