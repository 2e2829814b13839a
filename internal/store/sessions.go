package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/isolate/internal/ir"
)

// BeginSession inserts a session record. Inserting an existing ID is a
// no-op so a resumed session can call it again.
func (s *Store) BeginSession(ctx context.Context, session ir.Session) error {
	status := session.Status
	if status == "" {
		status = ir.SessionRunning
	}
	startedAt := session.StartedAt
	if startedAt.IsZero() {
		startedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, culprit_id, snapshot_digest, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		session.ID,
		string(status),
		session.CulpritID,
		session.SnapshotDigest,
		marshalTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	return nil
}

// FinishSession updates a session's status. An empty culpritID keeps the
// stored culprit. Setting status back to running clears finished_at.
func (s *Store) FinishSession(ctx context.Context, sessionID string, status ir.SessionStatus, culpritID string) error {
	var finishedAt any
	if status != ir.SessionRunning {
		finishedAt = marshalTime(s.now())
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET status = ?,
		    culprit_id = CASE WHEN ? = '' THEN culprit_id ELSE ? END,
		    finished_at = ?
		WHERE id = ?
	`, string(status), culpritID, culpritID, finishedAt, sessionID)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return expectOneRow(res, "finish session", sessionID)
}

// MarkRestored stamps restored_at. A session still running is closed as
// aborted, since its search can no longer complete against restored state.
func (s *Store) MarkRestored(ctx context.Context, sessionID string) error {
	now := marshalTime(s.now())
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET restored_at = ?,
		    status = CASE WHEN status = 'running' THEN 'aborted' ELSE status END,
		    finished_at = COALESCE(finished_at, ?)
		WHERE id = ?
	`, now, now, sessionID)
	if err != nil {
		return fmt.Errorf("mark restored: %w", err)
	}
	return expectOneRow(res, "mark restored", sessionID)
}

// Session reads one session. Returns ErrNotFound if it does not exist.
func (s *Store) Session(ctx context.Context, sessionID string) (ir.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, culprit_id, snapshot_digest, started_at, finished_at, restored_at
		FROM sessions
		WHERE id = ?
	`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Session{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return ir.Session{}, fmt.Errorf("read session: %w", err)
	}
	return session, nil
}

// Sessions lists sessions, most recent first, at most limit rows
// (limit <= 0 means all).
func (s *Store) Sessions(ctx context.Context, limit int) ([]ir.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, culprit_id, snapshot_digest, started_at, finished_at, restored_at
		FROM sessions
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (ir.Session, error) {
	var (
		session    ir.Session
		status     string
		startedAt  string
		finishedAt sql.NullString
		restoredAt sql.NullString
	)
	if err := row.Scan(&session.ID, &status, &session.CulpritID, &session.SnapshotDigest, &startedAt, &finishedAt, &restoredAt); err != nil {
		return ir.Session{}, err
	}
	session.Status = ir.SessionStatus(status)

	var err error
	if session.StartedAt, err = unmarshalTime(startedAt); err != nil {
		return ir.Session{}, err
	}
	if session.FinishedAt, err = unmarshalNullTime(finishedAt); err != nil {
		return ir.Session{}, err
	}
	if session.RestoredAt, err = unmarshalNullTime(restoredAt); err != nil {
		return ir.Session{}, err
	}
	return session, nil
}

// RecordStep journals an answered step.
//
// Re-recording an identical step (same content-addressed ID) is a no-op.
// A different step at an existing index replaces it and drops every later
// step, because the questions that followed are no longer valid.
func (s *Store) RecordStep(ctx context.Context, sessionID string, step ir.Step) error {
	stepID, err := ir.StepID(sessionID, step.Index, step.FirstHalf)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	first, err := marshalIDs(step.FirstHalf)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	second, err := marshalIDs(step.SecondHalf)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, `
			SELECT step_id FROM steps WHERE session_id = ? AND step_index = ?
		`, sessionID, step.Index).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("record step: %w", err)
		case existing == stepID:
			return nil
		default:
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM steps WHERE session_id = ? AND step_index >= ?
			`, sessionID, step.Index); err != nil {
				return fmt.Errorf("record step: truncate journal: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO steps (session_id, step_index, step_id, first_half, second_half, answer)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sessionID, step.Index, stepID, first, second, boolToInt(step.Answer)); err != nil {
			return fmt.Errorf("record step: %w", err)
		}
		return nil
	})
}

// Steps returns a session's journal ordered by step index.
func (s *Store) Steps(ctx context.Context, sessionID string) ([]ir.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_index, first_half, second_half, answer
		FROM steps
		WHERE session_id = ?
		ORDER BY step_index ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	defer rows.Close()

	steps := []ir.Step{}
	for rows.Next() {
		var (
			step          ir.Step
			first, second string
			answer        int
		)
		if err := rows.Scan(&step.Index, &first, &second, &answer); err != nil {
			return nil, fmt.Errorf("read steps: %w", err)
		}
		if step.FirstHalf, err = unmarshalIDs(first); err != nil {
			return nil, fmt.Errorf("read steps: %w", err)
		}
		if step.SecondHalf, err = unmarshalIDs(second); err != nil {
			return nil, fmt.Errorf("read steps: %w", err)
		}
		step.Answer = answer == 1
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	return steps, nil
}

func expectOneRow(res sql.Result, op, sessionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, sessionID, ErrNotFound)
	}
	return nil
}
