// File path: internal/session/sessions.go
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/levnertech/gapcheck/internal/verdict"
)

// CreateSession starts a new assessment session in the given mode.
func (s *Store) CreateSession(ctx context.Context, mode string) (*Session, error) {
	if mode != ModeStructured && mode != ModeOpenEnded {
		return nil, fmt.Errorf("unknown assessment mode %q", mode)
	}
	id := uuid.NewString()
	now := timestamp()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, mode, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, mode, now, now); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession loads a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, mode, created_at, updated_at FROM sessions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	return &Session{ID: row.ID, Mode: row.Mode, CreatedAt: created, UpdatedAt: updated}, nil
}

// SetMode switches the session's assessment mode.
func (s *Store) SetMode(ctx context.Context, id, mode string) error {
	if mode != ModeStructured && mode != ModeOpenEnded {
		return fmt.Errorf("unknown assessment mode %q", mode)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET mode = ?, updated_at = ? WHERE id = ?`, mode, timestamp(), id)
	if err != nil {
		return fmt.Errorf("update session mode: %w", err)
	}
	return requireRow(res)
}

// DeleteSession removes a session and everything recorded under it.
// Used by assessment restart.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(res)
}

// Position returns the session's position within one clause, if any.
func (s *Store) Position(ctx context.Context, sessionID, clauseID string) (*Position, bool, error) {
	var pos Position
	err := s.db.GetContext(ctx, &pos,
		`SELECT session_id, clause, step, terminal FROM positions WHERE session_id = ? AND clause = ?`,
		sessionID, clauseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select position: %w", err)
	}
	return &pos, true, nil
}

// SavePosition upserts the session's position within a clause. Once a
// position is terminal the clause's contribution is immutable; further
// saves are rejected.
func (s *Store) SavePosition(ctx context.Context, pos Position) error {
	existing, ok, err := s.Position(ctx, pos.SessionID, pos.Clause)
	if err != nil {
		return err
	}
	if ok && existing.Terminal {
		return fmt.Errorf("clause %s already terminal for session %s", pos.Clause, pos.SessionID)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (session_id, clause, step, terminal) VALUES (?, ?, ?, ?)
                 ON CONFLICT(session_id, clause) DO UPDATE SET step = excluded.step, terminal = excluded.terminal`,
		pos.SessionID, pos.Clause, pos.Step, pos.Terminal); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return s.touch(ctx, pos.SessionID)
}

// RecordVerdict stores the terminal verdict payload for a clause together
// with any supporting details, and marks the position terminal.
func (s *Store) RecordVerdict(ctx context.Context, sessionID, clauseID string, payload verdict.Payload, details map[string]interface{}) error {
	if !payload.Valid() {
		return fmt.Errorf("invalid verdict payload for clause %s", clauseID)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode verdict payload: %w", err)
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	detailJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode verdict details: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO verdicts (session_id, clause, payload, details, created_at) VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(session_id, clause) DO UPDATE SET payload = excluded.payload, details = excluded.details`,
		sessionID, clauseID, string(encoded), string(detailJSON), timestamp()); err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (session_id, clause, step, terminal) VALUES (?, ?, ?, 1)
                 ON CONFLICT(session_id, clause) DO UPDATE SET terminal = 1`,
		sessionID, clauseID, "1"); err != nil {
		return fmt.Errorf("mark position terminal: %w", err)
	}
	return s.touch(ctx, sessionID)
}

// Results returns the recorded clause results in recording order.
func (s *Store) Results(ctx context.Context, sessionID string) ([]verdict.ClauseResult, error) {
	rows := []verdictRow{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT session_id, clause, payload, details, created_at FROM verdicts
                 WHERE session_id = ? ORDER BY created_at, clause`, sessionID); err != nil {
		return nil, fmt.Errorf("select verdicts: %w", err)
	}
	results := make([]verdict.ClauseResult, 0, len(rows))
	for _, row := range rows {
		var payload verdict.Payload
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return nil, fmt.Errorf("decode verdict payload for clause %s: %w", row.Clause, err)
		}
		var details map[string]interface{}
		if err := json.Unmarshal([]byte(row.Details), &details); err != nil {
			return nil, fmt.Errorf("decode verdict details for clause %s: %w", row.Clause, err)
		}
		if len(details) == 0 {
			details = nil
		}
		results = append(results, verdict.ClauseResult{Clause: row.Clause, Verdict: payload, Details: details})
	}
	return results, nil
}

// SaveOpenResponse stores the user's free-text answer for a clause.
func (s *Store) SaveOpenResponse(ctx context.Context, sessionID, clauseID, body string) error {
	return s.saveRecord(ctx, "open_responses", sessionID, clauseID, body)
}

// OpenResponse returns the stored free-text answer for a clause, if any.
func (s *Store) OpenResponse(ctx context.Context, sessionID, clauseID string) (string, bool, error) {
	return s.loadRecord(ctx, "open_responses", sessionID, clauseID)
}

// SaveEvidence stores the serialized evidence analysis for a clause.
func (s *Store) SaveEvidence(ctx context.Context, sessionID, clauseID, body string) error {
	return s.saveRecord(ctx, "evidence", sessionID, clauseID, body)
}

// Evidence returns the stored evidence analysis for a clause, if any.
func (s *Store) Evidence(ctx context.Context, sessionID, clauseID string) (string, bool, error) {
	return s.loadRecord(ctx, "evidence", sessionID, clauseID)
}

func (s *Store) saveRecord(ctx context.Context, table, sessionID, clauseID, body string) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (session_id, clause, body) VALUES (?, ?, ?)
                 ON CONFLICT(session_id, clause) DO UPDATE SET body = excluded.body`, table)
	if _, err := s.db.ExecContext(ctx, query, sessionID, clauseID, body); err != nil {
		return fmt.Errorf("save %s record: %w", table, err)
	}
	return s.touch(ctx, sessionID)
}

func (s *Store) loadRecord(ctx context.Context, table, sessionID, clauseID string) (string, bool, error) {
	var row recordRow
	query := fmt.Sprintf(
		`SELECT session_id, clause, body FROM %s WHERE session_id = ? AND clause = ?`, table)
	err := s.db.GetContext(ctx, &row, query, sessionID, clauseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s record: %w", table, err)
	}
	return row.Body, true, nil
}

func (s *Store) touch(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, timestamp(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
