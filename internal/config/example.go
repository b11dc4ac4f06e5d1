package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Example is the annotated config written by `scout init`. Every value is a
// default.
const Example = `# scout configuration
#
# Environment overrides: ANTHROPIC_API_KEY, SCOUT_MODEL, SCOUT_MAX_ITERATIONS,
# SCOUT_PLAN_URL, SCOUT_DB, SCOUT_LOG_LEVEL.

# Decision model; empty uses the built-in default
model: ""
# Model that writes the implementation plan; empty reuses model
plan_model: ""

# Hard ceiling on exploration iterations
max_iterations: 20
# Understanding level at which a finished session is handed to the planner
handoff_threshold: 0.7

# SQLite database, relative to the workspace root
database: .scout/scout.db

# Stream plans from an external service instead of the model
plan_service_url: ""

# debug, info, warn or error
log_level: info

retry:
  max_retries: 3
  initial_backoff: 1s
  max_backoff: 30s
  timeout: 2m
  circuit_breaker: true
  failure_threshold: 5
  success_threshold: 2
  open_timeout: 30s
  max_concurrent_calls: 2

rate_limit:
  # 0 disables pacing
  requests_per_minute: 0
  burst: 1

retention:
  events: 30d
  error_events: 90d
  # 0 keeps finished sessions forever
  sessions: 0s
  batch_size: 1000

workspace:
  # Extra path patterns left out of the workspace profile
  exclude: []
`

// WriteExample writes Example to path. An existing file is only replaced
// when force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Example), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
