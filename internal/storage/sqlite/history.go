package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/steveyegge/scout/internal/types"
)

// SaveHistoryEntry inserts the entry or replaces the stored one for the same
// iteration. The loop saves an entry twice: when the decision arrives and
// again once its observation is attached.
func (s *SQLiteStorage) SaveHistoryEntry(ctx context.Context, sessionID string, entry types.HistoryEntry) error {
	findings, err := marshalList(entry.KeyFindings)
	if err != nil {
		return err
	}
	files, err := marshalList(entry.ExploredFiles)
	if err != nil {
		return err
	}
	dirs, err := marshalList(entry.ExploredDirectories)
	if err != nil {
		return err
	}
	var observation sql.NullString
	if entry.Observation != nil {
		data, err := json.Marshal(entry.Observation)
		if err != nil {
			return fmt.Errorf("failed to marshal observation: %w", err)
		}
		observation = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO history_entries (
			session_id, iteration, understanding, action_type, action_target,
			action_success, key_findings, explored_files, explored_directories, observation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, iteration) DO UPDATE SET
			understanding = excluded.understanding,
			action_type = excluded.action_type,
			action_target = excluded.action_target,
			action_success = excluded.action_success,
			key_findings = excluded.key_findings,
			explored_files = excluded.explored_files,
			explored_directories = excluded.explored_directories,
			observation = excluded.observation
	`
	_, err = s.db.ExecContext(ctx, query,
		sessionID,
		entry.Iteration,
		entry.UnderstandingLevel,
		string(entry.ActionSummary.Type),
		entry.ActionSummary.Target,
		entry.ActionSummary.Success,
		findings,
		files,
		dirs,
		observation,
	)
	if err != nil {
		return fmt.Errorf("failed to save history entry (session=%s, iteration=%d): %w", sessionID, entry.Iteration, err)
	}
	return nil
}

// GetHistory returns a session's history in iteration order. Observation
// payloads come back as generic JSON values.
func (s *SQLiteStorage) GetHistory(ctx context.Context, sessionID string) ([]types.HistoryEntry, error) {
	query := `
		SELECT iteration, understanding, action_type, action_target, action_success,
		       key_findings, explored_files, explored_directories, observation
		FROM history_entries
		WHERE session_id = ?
		ORDER BY iteration ASC
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var result []types.HistoryEntry
	for rows.Next() {
		var (
			entry                 types.HistoryEntry
			actionType            string
			findings, files, dirs string
			observation           sql.NullString
		)
		err := rows.Scan(
			&entry.Iteration,
			&entry.UnderstandingLevel,
			&actionType,
			&entry.ActionSummary.Target,
			&entry.ActionSummary.Success,
			&findings,
			&files,
			&dirs,
			&observation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.ActionSummary.Type = types.ActionType(actionType)
		if err := json.Unmarshal([]byte(findings), &entry.KeyFindings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal key findings: %w", err)
		}
		if err := json.Unmarshal([]byte(files), &entry.ExploredFiles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal explored files: %w", err)
		}
		if err := json.Unmarshal([]byte(dirs), &entry.ExploredDirectories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal explored directories: %w", err)
		}
		if observation.Valid {
			var obs types.ActionResult
			if err := json.Unmarshal([]byte(observation.String), &obs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal observation: %w", err)
			}
			entry.Observation = &obs
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return result, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(data), nil
}
