// Package ai talks to the Anthropic API on behalf of an exploration: the
// decision oracle that picks the next inspection, and the plan writer that
// streams the final implementation plan.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// ModelSonnet is the default model for both exploration and planning
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is a cheaper model usable for exploration on small repos
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, checking SCOUT_MODEL first
func GetDefaultModel() string {
	if model := os.Getenv("SCOUT_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// RateLimitConfig paces outgoing requests. Zero RequestsPerMinute disables it.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Config holds client configuration
type Config struct {
	APIKey    string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	BaseURL   string // Optional API base URL override
	Model     string // Model to use (default: GetDefaultModel())
	Retry     RetryConfig
	RateLimit RateLimitConfig
	Logger    *zap.Logger
}

// Client wraps the Anthropic SDK with retries, a circuit breaker, a
// concurrency cap and request pacing.
type Client struct {
	client         *anthropic.Client
	model          string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	concurrencySem *semaphore.Weighted
	limiter        *rate.Limiter
	logger         *zap.Logger
}

// NewClient creates a new API client
func NewClient(cfg *Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not set")
		}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	// Retries are ours; the SDK's own would multiply attempts
	opts = append(opts, option.WithMaxRetries(0))
	client := anthropic.NewClient(opts...)

	return newClient(&client, cfg), nil
}

func newClient(client *anthropic.Client, cfg *Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.Timeout == 0 {
		retry = DefaultRetryConfig()
	}
	if retry.BackoffMultiplier <= 0 {
		retry.BackoffMultiplier = 2.0
	}
	if retry.Timeout <= 0 {
		retry.Timeout = DefaultRetryConfig().Timeout
	}

	c := &Client{
		client: client,
		model:  model,
		retry:  retry,
		logger: logger,
	}

	if retry.CircuitBreakerEnabled {
		c.circuitBreaker = NewCircuitBreaker(retry.FailureThreshold, retry.SuccessThreshold, retry.OpenTimeout, logger)
		logger.Debug("circuit breaker initialized",
			zap.Int("failure_threshold", retry.FailureThreshold),
			zap.Int("success_threshold", retry.SuccessThreshold),
			zap.Duration("open_timeout", retry.OpenTimeout))
	}
	if retry.MaxConcurrentCalls > 0 {
		c.concurrencySem = semaphore.NewWeighted(int64(retry.MaxConcurrentCalls))
	}
	if rl := cfg.RateLimit; rl.RequestsPerMinute > 0 {
		burst := rl.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.RequestsPerMinute)), burst)
	}
	return c
}

// Model returns the model used when a call does not name one.
func (c *Client) Model() string {
	return c.model
}

// HealthCheck reports whether the circuit breaker currently allows calls
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.circuitBreaker == nil {
		return nil
	}
	state, failures, _ := c.circuitBreaker.GetMetrics()
	if state == CircuitOpen {
		return fmt.Errorf("AI client unavailable: %w (failures=%d, retry in %v)",
			ErrCircuitOpen, failures, c.retry.OpenTimeout)
	}
	return nil
}

// CallAI makes a single-turn API call with retry and returns the text content
// of the response.
func (c *Client) CallAI(ctx context.Context, system, prompt, operation, model string, maxTokens int) (string, error) {
	startTime := time.Now()
	if model == "" {
		model = c.model
	}
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var response *anthropic.Message
	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, params)
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	c.logger.Debug("AI call completed",
		zap.String("operation", operation),
		zap.String("model", model),
		zap.Int64("input_tokens", response.Usage.InputTokens),
		zap.Int64("output_tokens", response.Usage.OutputTokens),
		zap.Duration("duration", time.Since(startTime)))
	return text.String(), nil
}
