package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/steveyegge/scout/internal/events"
)

var _ events.Sink = (*SQLiteStorage)(nil)

// Publish stores an exploration event. Plan chunks are not stored; the
// complete plan is saved with the session.
func (s *SQLiteStorage) Publish(ctx context.Context, event *events.ExplorationEvent) error {
	if event.Type == events.EventTypePlanChunk {
		return nil
	}
	return s.StoreEvent(ctx, event)
}

// StoreEvent stores a new exploration event in the database
func (s *SQLiteStorage) StoreEvent(ctx context.Context, event *events.ExplorationEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	query := `
		INSERT INTO exploration_events (
			id, type, timestamp, session_id, iteration, severity, message, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Type),
		formatTime(event.Timestamp),
		event.SessionID,
		event.Iteration,
		string(event.Severity),
		event.Message,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store event (type=%s, session=%s): %w", event.Type, event.SessionID, err)
	}
	return nil
}

// EventFilter narrows GetEvents. Zero fields match everything.
type EventFilter struct {
	SessionID string
	Type      events.EventType
	Severity  events.EventSeverity
	Limit     int
}

// GetEvents returns matching events oldest first.
func (s *SQLiteStorage) GetEvents(ctx context.Context, filter EventFilter) ([]*events.ExplorationEvent, error) {
	query := `
		SELECT id, type, timestamp, session_id, iteration, severity, message, data
		FROM exploration_events
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}
	query += " ORDER BY timestamp ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*events.ExplorationEvent, error) {
	var result []*events.ExplorationEvent
	for rows.Next() {
		var (
			event     events.ExplorationEvent
			eventType string
			severity  string
			timestamp string
			dataJSON  string
		)
		err := rows.Scan(
			&event.ID,
			&eventType,
			&timestamp,
			&event.SessionID,
			&event.Iteration,
			&severity,
			&event.Message,
			&dataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = events.EventType(eventType)
		event.Severity = events.EventSeverity(severity)
		if event.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}

		event.Data = make(map[string]interface{})
		if dataJSON != "" && dataJSON != "{}" && dataJSON != "null" {
			if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		result = append(result, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return result, nil
}
