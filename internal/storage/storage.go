package storage

import (
	"context"
	"time"

	"github.com/steveyegge/scout/internal/events"
	"github.com/steveyegge/scout/internal/explore"
	"github.com/steveyegge/scout/internal/storage/sqlite"
	"github.com/steveyegge/scout/internal/types"
)

// Storage defines the interface for session storage backends
type Storage interface {
	// Progress written by the exploration loop
	explore.Store

	// Events
	events.Sink
	GetEvents(ctx context.Context, filter sqlite.EventFilter) ([]*events.ExplorationEvent, error)

	// Sessions
	GetSession(ctx context.Context, id string) (*sqlite.SessionRecord, error)
	ListSessions(ctx context.Context, limit int) ([]*sqlite.SessionRecord, error)
	GetHistory(ctx context.Context, sessionID string) ([]types.HistoryEntry, error)

	// Retention
	CleanupEventsByAge(ctx context.Context, retention, errorRetention time.Duration, batchSize int) (int, error)
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".scout/scout.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with the default database path
func DefaultConfig() *Config {
	return &Config{
		Path: DefaultDatabasePath,
	}
}

// NewStorage opens the SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultDatabasePath
	}
	return sqlite.New(ctx, cfg.Path)
}
