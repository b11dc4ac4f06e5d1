// Package config loads scout's per-workspace configuration from
// .scout/config.yaml, applying defaults and environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file location relative to the workspace root.
const FileName = ".scout/config.yaml"

// Config is the complete scout configuration.
type Config struct {
	// Model is the decision model; empty selects the client default
	Model string `yaml:"model"`
	// PlanModel is the model that writes the plan; empty reuses Model
	PlanModel string `yaml:"plan_model"`
	// BaseURL overrides the Anthropic API endpoint
	BaseURL string `yaml:"base_url,omitempty"`
	// APIKey only comes from ANTHROPIC_API_KEY and is never written out
	APIKey string `yaml:"-"`

	MaxIterations    int     `yaml:"max_iterations"`
	HandoffThreshold float64 `yaml:"handoff_threshold"`

	// Database is the SQLite path, relative to the workspace root
	Database string `yaml:"database"`
	// PlanServiceURL sends the handoff to an external plan service instead
	// of the model
	PlanServiceURL string `yaml:"plan_service_url"`
	LogLevel       string `yaml:"log_level"`

	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Retention RetentionConfig `yaml:"retention"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// RetryConfig controls retries and the circuit breaker around model calls.
type RetryConfig struct {
	MaxRetries         int      `yaml:"max_retries"`
	InitialBackoff     Duration `yaml:"initial_backoff"`
	MaxBackoff         Duration `yaml:"max_backoff"`
	Timeout            Duration `yaml:"timeout"`
	CircuitBreaker     bool     `yaml:"circuit_breaker"`
	FailureThreshold   int      `yaml:"failure_threshold"`
	SuccessThreshold   int      `yaml:"success_threshold"`
	OpenTimeout        Duration `yaml:"open_timeout"`
	MaxConcurrentCalls int      `yaml:"max_concurrent_calls"`
}

// RateLimitConfig paces model calls. Zero requests per minute disables it.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// WorkspaceConfig tunes the workspace profile sent to the model.
type WorkspaceConfig struct {
	// Exclude lists extra path patterns skipped by the profile
	Exclude []string `yaml:"exclude,omitempty"`
}

// Duration is a time.Duration that reads and writes as text ("30s", "7d").
type Duration time.Duration

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", value.Line, err)
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as text.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    20,
		HandoffThreshold: 0.7,
		Database:         ".scout/scout.db",
		LogLevel:         "info",
		Retry: RetryConfig{
			MaxRetries:         3,
			InitialBackoff:     Duration(time.Second),
			MaxBackoff:         Duration(30 * time.Second),
			Timeout:            Duration(120 * time.Second),
			CircuitBreaker:     true,
			FailureThreshold:   5,
			SuccessThreshold:   2,
			OpenTimeout:        Duration(30 * time.Second),
			MaxConcurrentCalls: 2,
		},
		RateLimit: RateLimitConfig{Burst: 1},
		Retention: DefaultRetentionConfig(),
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, FileName)
}

// Load reads the config file at path. A missing file yields the defaults.
// Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	parseEnvString("ANTHROPIC_API_KEY", &c.APIKey)
	parseEnvString("SCOUT_MODEL", &c.Model)
	parseEnvString("SCOUT_PLAN_URL", &c.PlanServiceURL)
	parseEnvString("SCOUT_DB", &c.Database)
	parseEnvString("SCOUT_LOG_LEVEL", &c.LogLevel)
	return parseEnvInt("SCOUT_MAX_ITERATIONS", &c.MaxIterations)
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.MaxIterations < 1 || c.MaxIterations > 200 {
		return fmt.Errorf("max_iterations must be between 1 and 200 (got %d)", c.MaxIterations)
	}
	if c.HandoffThreshold <= 0 || c.HandoffThreshold > 1 {
		return fmt.Errorf("handoff_threshold must be within (0,1] (got %v)", c.HandoffThreshold)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error (got %q)", c.LogLevel)
	}

	r := c.Retry
	if r.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative (got %d)", r.MaxRetries)
	}
	if r.InitialBackoff < 0 || r.MaxBackoff < 0 || r.Timeout < 0 || r.OpenTimeout < 0 {
		return fmt.Errorf("retry durations cannot be negative")
	}
	if r.MaxBackoff > 0 && r.InitialBackoff > r.MaxBackoff {
		return fmt.Errorf("retry.initial_backoff (%v) exceeds retry.max_backoff (%v)",
			r.InitialBackoff.Std(), r.MaxBackoff.Std())
	}
	if r.CircuitBreaker && (r.FailureThreshold < 1 || r.SuccessThreshold < 1) {
		return fmt.Errorf("circuit breaker thresholds must be at least 1")
	}
	if r.MaxConcurrentCalls < 0 {
		return fmt.Errorf("retry.max_concurrent_calls cannot be negative (got %d)", r.MaxConcurrentCalls)
	}

	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values cannot be negative")
	}
	if err := c.Retention.Validate(); err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	return nil
}
