package config

import (
	"fmt"
	"time"
)

// RetentionConfig controls how long stored events and sessions are kept.
// `scout prune` applies it.
type RetentionConfig struct {
	// Events is the retention period for info and warning events
	// Default: 30d
	Events Duration `yaml:"events"`

	// ErrorEvents is the retention period for error events, kept longer
	// for failure analysis. Must be >= Events
	// Default: 90d
	ErrorEvents Duration `yaml:"error_events"`

	// Sessions removes finished sessions (with their history and events)
	// started longer ago than this. 0 keeps sessions forever
	// Default: 0
	Sessions Duration `yaml:"sessions"`

	// BatchSize is the number of events deleted per statement
	// Default: 1000, Range: 100-10000
	BatchSize int `yaml:"batch_size"`
}

// DefaultRetentionConfig returns the default retention configuration
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Events:      Duration(30 * 24 * time.Hour),
		ErrorEvents: Duration(90 * 24 * time.Hour),
		BatchSize:   1000,
	}
}

// Validate checks if the configuration has valid values
func (c RetentionConfig) Validate() error {
	if c.Events < Duration(time.Hour) {
		return fmt.Errorf("events must be at least 1h (got %v)", c.Events.Std())
	}
	if c.ErrorEvents < c.Events {
		return fmt.Errorf("error_events (%v) must be >= events (%v)", c.ErrorEvents.Std(), c.Events.Std())
	}
	if c.Sessions < 0 {
		return fmt.Errorf("sessions cannot be negative")
	}
	if c.BatchSize < 100 || c.BatchSize > 10000 {
		return fmt.Errorf("batch_size must be between 100 and 10000 (got %d)", c.BatchSize)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c RetentionConfig) String() string {
	return fmt.Sprintf("RetentionConfig{Events: %v, ErrorEvents: %v, Sessions: %v, BatchSize: %d}",
		c.Events.Std(), c.ErrorEvents.Std(), c.Sessions.Std(), c.BatchSize)
}
