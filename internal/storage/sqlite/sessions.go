package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/scout/internal/types"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// ErrAmbiguousID is returned when a session ID prefix matches several sessions.
var ErrAmbiguousID = errors.New("ambiguous session id")

// SessionRecord is a stored session with its final knowledge and plan.
type SessionRecord struct {
	Session   types.ExplorationSession
	Knowledge types.KnowledgeState
	Plan      string
}

// SaveSession inserts or updates the session row. Knowledge and plan are
// left untouched.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *types.ExplorationSession) error {
	var endedAt sql.NullString
	if session.EndedAt != nil {
		endedAt = sql.NullString{String: formatTime(*session.EndedAt), Valid: true}
	}

	query := `
		INSERT INTO sessions (
			id, goal, workspace, max_iterations, current_iteration,
			active, outcome, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			goal = excluded.goal,
			workspace = excluded.workspace,
			max_iterations = excluded.max_iterations,
			current_iteration = excluded.current_iteration,
			active = excluded.active,
			outcome = excluded.outcome,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ImplementationGoal,
		session.Workspace,
		session.Ceiling(),
		session.CurrentIteration,
		session.Active,
		string(session.Outcome),
		formatTime(session.StartedAt),
		endedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// SaveKnowledge stores the cumulative knowledge of a session.
func (s *SQLiteStorage) SaveKnowledge(ctx context.Context, sessionID string, knowledge types.KnowledgeState) error {
	data, err := json.Marshal(knowledge)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge: %w", err)
	}
	return s.updateSession(ctx, sessionID, "knowledge", string(data))
}

// SavePlan stores the plan text produced at handoff.
func (s *SQLiteStorage) SavePlan(ctx context.Context, sessionID string, plan string) error {
	return s.updateSession(ctx, sessionID, "plan", plan)
}

// updateSession sets one column; column is always a literal from this file.
func (s *SQLiteStorage) updateSession(ctx context.Context, sessionID, column, value string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET "+column+" = ? WHERE id = ?", value, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update %s of session %s: %w", column, sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of session %s: %w", sessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return nil
}

const sessionColumns = `
	id, goal, workspace, max_iterations, current_iteration,
	active, outcome, started_at, ended_at, knowledge, plan
`

// GetSession loads a session by ID or by a unique ID prefix.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id = ? DESC LIMIT 2",
		id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	records, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(records) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case records[0].Session.ID == id:
		return records[0], nil
	case len(records) > 1:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
	return records[0], nil
}

// ListSessions returns the most recently started sessions first. A
// non-positive limit returns all sessions.
func (s *SQLiteStorage) ListSessions(ctx context.Context, limit int) ([]*SessionRecord, error) {
	query := "SELECT " + sessionColumns + " FROM sessions ORDER BY started_at DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*SessionRecord, error) {
	var result []*SessionRecord
	for rows.Next() {
		var (
			rec       SessionRecord
			outcome   string
			startedAt string
			endedAt   sql.NullString
			knowledge string
		)
		err := rows.Scan(
			&rec.Session.ID,
			&rec.Session.ImplementationGoal,
			&rec.Session.Workspace,
			&rec.Session.MaxIterations,
			&rec.Session.CurrentIteration,
			&rec.Session.Active,
			&outcome,
			&startedAt,
			&endedAt,
			&knowledge,
			&rec.Plan,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.Session.Outcome = types.Outcome(outcome)
		if rec.Session.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t, err := parseTime(endedAt.String)
			if err != nil {
				return nil, err
			}
			rec.Session.EndedAt = &t
		}
		rec.Knowledge = types.NewKnowledgeState()
		if err := json.Unmarshal([]byte(knowledge), &rec.Knowledge); err != nil {
			return nil, fmt.Errorf("failed to unmarshal knowledge of session %s: %w", rec.Session.ID, err)
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return result, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
