package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the persisted snapshot and quiet mode state.
const (
	KeyLastKnownActive   = "last_known_active"
	KeyLastKnownInactive = "last_known_inactive"
	KeySnapshotSession   = "snapshot_session"
	KeyQuietOn           = "quiet_on"
	KeyQuietLastActive   = "quiet_last_active"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getValue(ctx context.Context, q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func putValue(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func deleteValue(ctx context.Context, q queryer, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Strings reads a JSON string list stored under key. Missing keys read as
// an empty list.
func (s *Store) Strings(ctx context.Context, key string) ([]string, error) {
	value, _, err := getValue(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	return unmarshalIDs(value)
}

// PutStrings stores a string list under key.
func (s *Store) PutStrings(ctx context.Context, key string, values []string) error {
	data, err := marshalIDs(values)
	if err != nil {
		return err
	}
	return putValue(ctx, s.db, key, data)
}

// Bool reads a boolean flag. Missing keys read as false.
func (s *Store) Bool(ctx context.Context, key string) (bool, error) {
	value, ok, err := getValue(ctx, s.db, key)
	if err != nil || !ok {
		return false, err
	}
	var b bool
	if err := json.Unmarshal([]byte(value), &b); err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return b, nil
}

// PutBool stores a boolean flag.
func (s *Store) PutBool(ctx context.Context, key string, value bool) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return putValue(ctx, s.db, key, string(data))
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return deleteValue(ctx, s.db, key)
}
