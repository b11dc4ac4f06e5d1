package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"
)

// RetryConfig holds retry configuration for API calls
type RetryConfig struct {
	MaxRetries        int           // Maximum number of retries (default: 3)
	InitialBackoff    time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff        time.Duration // Maximum backoff duration (default: 30s)
	BackoffMultiplier float64       // Backoff multiplier (default: 2.0)
	Timeout           time.Duration // Per-request timeout (default: 120s)

	// Circuit breaker settings
	CircuitBreakerEnabled bool          // Enable circuit breaker (default: true)
	FailureThreshold      int           // Failures before opening circuit (default: 5)
	SuccessThreshold      int           // Successes in half-open before closing (default: 2)
	OpenTimeout           time.Duration // How long to keep circuit open (default: 30s)

	MaxConcurrentCalls int // Maximum concurrent API calls (default: 2, 0 = unlimited)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:            3,
		InitialBackoff:        1 * time.Second,
		MaxBackoff:            30 * time.Second,
		BackoffMultiplier:     2.0,
		Timeout:               120 * time.Second,
		CircuitBreakerEnabled: true,
		FailureThreshold:      5,
		SuccessThreshold:      2,
		OpenTimeout:           30 * time.Second,
		MaxConcurrentCalls:    2,
	}
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation, requests pass through
	CircuitOpen                         // Too many failures, block requests (fail fast)
	CircuitHalfOpen                     // Testing recovery, allow limited requests
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker stops calling a failing API until it has had time to recover
type CircuitBreaker struct {
	mu sync.Mutex

	state            CircuitState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the given configuration
func NewCircuitBreaker(failureThreshold, successThreshold int, openTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// Allow returns ErrCircuitOpen while the circuit is open and the open timeout
// has not elapsed
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.openTimeout {
			cb.transition(CircuitHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	default:
		return ErrCircuitOpen
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.transition(CircuitClosed)
		}
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()
	switch cb.state {
	case CircuitClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure while probing reopens immediately
		cb.transition(CircuitOpen)
	}
}

// GetState returns the current state (for testing/monitoring)
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetMetrics returns current metrics (for monitoring/logging)
func (cb *CircuitBreaker) GetMetrics() (state CircuitState, failures, successes int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state, cb.failureCount, cb.successCount
}

// transition must be called with the lock held
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	cb.successCount = 0
	if to == CircuitClosed {
		cb.failureCount = 0
	}
	cb.logger.Info("circuit breaker state transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("failures", cb.failureCount),
		zap.Duration("open_timeout", cb.openTimeout))
}

// ErrorType classifies API failures for retry decisions
type ErrorType int

const (
	ErrorUnknown   ErrorType = iota
	ErrorTransient           // 5xx, timeouts, connection failures
	ErrorRateLimit           // 429; retried after the server-suggested wait
	ErrorAuth                // 401, 403
	ErrorInvalid             // other 4xx
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTransient:
		return "TRANSIENT"
	case ErrorRateLimit:
		return "RATE_LIMIT"
	case ErrorAuth:
		return "AUTH"
	case ErrorInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// Retriable reports whether another attempt may succeed
func (t ErrorType) Retriable() bool {
	return t == ErrorTransient || t == ErrorRateLimit
}

// classifyError determines the error type and, for rate limits, how long the
// server asked us to wait (0 when unknown).
func classifyError(err error) (ErrorType, time.Duration) {
	if err == nil {
		return ErrorUnknown, 0
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient, 0
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return ErrorRateLimit, parseRetryAfter(apiErr)
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return ErrorAuth, 0
		case apiErr.StatusCode >= 500:
			return ErrorTransient, 0
		case apiErr.StatusCode >= 400:
			return ErrorInvalid, 0
		}
	}

	// Fall back to the message for wrapped or transport-level errors
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return ErrorRateLimit, parseRetryAfterFromMessage(msg)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "invalid x-api-key") || strings.Contains(msg, "authentication"):
		return ErrorAuth, 0
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "504") || strings.Contains(msg, "529") ||
		strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "internal server error") ||
		strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "gateway timeout"):
		return ErrorTransient, 0
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") ||
		strings.Contains(msg, "eof"):
		return ErrorTransient, 0
	case strings.Contains(msg, "400") || strings.Contains(msg, "404"):
		return ErrorInvalid, 0
	}
	return ErrorUnknown, 0
}

// isRetriableError determines if an error is retriable (transient)
func isRetriableError(err error) bool {
	t, _ := classifyError(err)
	return t.Retriable()
}

// parseRetryAfter reads Retry-After (seconds or HTTP date) from an API error
func parseRetryAfter(apiErr *anthropic.Error) time.Duration {
	if apiErr.Response == nil {
		return 0
	}
	h := apiErr.Response.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(h); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

var retryInRegex = regexp.MustCompile(`(?:try again in|wait|retry after)\s+(\d+)\s*(second|sec|s|minute|min|m|hour|h)`)

// parseRetryAfterFromMessage extracts waits like "try again in 12 seconds"
func parseRetryAfterFromMessage(msg string) time.Duration {
	m := retryInRegex.FindStringSubmatch(strings.ToLower(msg))
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	switch {
	case strings.HasPrefix(m[2], "h"):
		return time.Duration(n) * time.Hour
	case strings.HasPrefix(m[2], "m"):
		return time.Duration(n) * time.Minute
	default:
		return time.Duration(n) * time.Second
	}
}

// retryWithBackoff executes an operation with rate limiting, the circuit
// breaker, and retry with exponential backoff
func (c *Client) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.concurrencySem != nil {
		if err := c.concurrencySem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire concurrency slot for %s: %w", operation, err)
		}
		defer c.concurrencySem.Release(1)
	}

	var lastErr error
	backoff := c.retry.InitialBackoff

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.circuitBreaker != nil {
			if err := c.circuitBreaker.Allow(); err != nil {
				state, failures, _ := c.circuitBreaker.GetMetrics()
				c.logger.Warn("API call blocked by circuit breaker",
					zap.String("operation", operation),
					zap.Stringer("state", state),
					zap.Int("failures", failures))
				return fmt.Errorf("%s failed: %w", operation, err)
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s failed: rate limiter: %w", operation, err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if c.circuitBreaker != nil {
				c.circuitBreaker.RecordSuccess()
			}
			if attempt > 0 {
				c.logger.Info("API call succeeded after retries",
					zap.String("operation", operation),
					zap.Int("retries", attempt))
			}
			return nil
		}
		lastErr = err

		errType, wait := classifyError(err)
		// Non-retriable errors (like auth failures) don't count against the circuit
		if c.circuitBreaker != nil && errType.Retriable() {
			c.circuitBreaker.RecordFailure()
		}
		if !errType.Retriable() {
			c.logger.Warn("API call failed with non-retriable error",
				zap.String("operation", operation),
				zap.Stringer("type", errType),
				zap.Error(err))
			return err
		}
		if attempt == c.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
		}

		sleep := backoff
		if wait > sleep {
			sleep = wait
		}
		if sleep > c.retry.MaxBackoff {
			sleep = c.retry.MaxBackoff
		}
		c.logger.Info("API call failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.retry.MaxRetries+1),
			zap.Duration("backoff", sleep),
			zap.Error(err))

		timer := time.NewTimer(sleep)
		select {
		case <-timer.C:
			backoff = time.Duration(float64(backoff) * c.retry.BackoffMultiplier)
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, c.retry.MaxRetries+1, lastErr)
}
