package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CleanupEventsByAge deletes events older than retention. Error events are
// kept until errorRetention has passed. Deletes run in batches of batchSize.
func (s *SQLiteStorage) CleanupEventsByAge(ctx context.Context, retention, errorRetention time.Duration, batchSize int) (int, error) {
	if retention < 0 || errorRetention < 0 {
		return 0, fmt.Errorf("retention cannot be negative")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	now := time.Now()
	total, err := s.deleteOldEventsBatch(ctx, now.Add(-retention), []string{"info", "warning"}, batchSize)
	if err != nil {
		return total, fmt.Errorf("failed to delete old events: %w", err)
	}
	deleted, err := s.deleteOldEventsBatch(ctx, now.Add(-errorRetention), []string{"error"}, batchSize)
	total += deleted
	if err != nil {
		return total, fmt.Errorf("failed to delete old error events: %w", err)
	}
	return total, nil
}

func (s *SQLiteStorage) deleteOldEventsBatch(ctx context.Context, cutoff time.Time, severities []string, batchSize int) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(severities)), ", ")
	query := fmt.Sprintf(`
		DELETE FROM exploration_events
		WHERE id IN (
			SELECT id FROM exploration_events
			WHERE timestamp < ? AND severity IN (%s)
			LIMIT ?
		)
	`, placeholders)

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		args := []interface{}{formatTime(cutoff)}
		for _, sev := range severities {
			args = append(args, sev)
		}
		args = append(args, batchSize)

		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += int(n)
		if int(n) < batchSize {
			return total, nil
		}
	}
}

// DeleteSessionsBefore removes finished sessions started before cutoff,
// together with their history and events. Active sessions are kept.
func (s *SQLiteStorage) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE active = 0 AND started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return int(n), nil
}

// CountEvents returns the number of stored events.
func (s *SQLiteStorage) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exploration_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
