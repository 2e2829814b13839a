package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/isolate/internal/ir"
)

// SaveSnapshot persists snap as the pending snapshot.
//
// The active and inactive ID lists and the owning session are written in a
// single transaction. Returns ErrSnapshotPending if a snapshot from any
// session is already stored.
func (s *Store) SaveSnapshot(ctx context.Context, snap ir.Snapshot) error {
	if snap.SessionID == "" {
		return fmt.Errorf("save snapshot: session id is required")
	}
	active, err := marshalIDs(snap.ActiveIDs())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	inactive, err := marshalIDs(snap.InactiveIDs())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		owner, ok, err := getValue(ctx, tx, KeySnapshotSession)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if ok {
			return fmt.Errorf("save snapshot for %s: %w (owner %s)", snap.SessionID, ErrSnapshotPending, owner)
		}
		if err := putValue(ctx, tx, KeyLastKnownActive, active); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if err := putValue(ctx, tx, KeyLastKnownInactive, inactive); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if err := putValue(ctx, tx, KeySnapshotSession, snap.SessionID); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	})
}

// LoadSnapshot returns the pending snapshot. The bool is false when none
// is stored.
func (s *Store) LoadSnapshot(ctx context.Context) (ir.Snapshot, bool, error) {
	var snap ir.Snapshot
	found := false

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sessionID, ok, err := getValue(ctx, tx, KeySnapshotSession)
		if err != nil || !ok {
			return err
		}
		activeJSON, _, err := getValue(ctx, tx, KeyLastKnownActive)
		if err != nil {
			return err
		}
		inactiveJSON, _, err := getValue(ctx, tx, KeyLastKnownInactive)
		if err != nil {
			return err
		}
		active, err := unmarshalIDs(activeJSON)
		if err != nil {
			return err
		}
		inactive, err := unmarshalIDs(inactiveJSON)
		if err != nil {
			return err
		}
		snap, err = ir.SnapshotFromLists(sessionID, active, inactive)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return ir.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, found, nil
}

// DiscardSnapshot removes the pending snapshot owned by sessionID.
// Discarding when nothing is pending is a no-op; discarding another
// session's snapshot is an error.
func (s *Store) DiscardSnapshot(ctx context.Context, sessionID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		owner, ok, err := getValue(ctx, tx, KeySnapshotSession)
		if err != nil {
			return fmt.Errorf("discard snapshot: %w", err)
		}
		if !ok {
			return nil
		}
		if owner != sessionID {
			return fmt.Errorf("discard snapshot: pending snapshot belongs to %s, not %s", owner, sessionID)
		}
		for _, key := range []string{KeyLastKnownActive, KeyLastKnownInactive, KeySnapshotSession} {
			if err := deleteValue(ctx, tx, key); err != nil {
				return fmt.Errorf("discard snapshot: %w", err)
			}
		}
		return nil
	})
}
