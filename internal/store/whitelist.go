package store

import (
	"context"
	"fmt"
)

// AddWhitelist adds itemID to the whitelist. Adding twice keeps the
// original position.
func (s *Store) AddWhitelist(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelist (item_id, seq)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM whitelist))
		ON CONFLICT(item_id) DO NOTHING
	`, itemID)
	if err != nil {
		return fmt.Errorf("add whitelist: %w", err)
	}
	return nil
}

// RemoveWhitelist removes itemID. Removing a missing ID is a no-op.
func (s *Store) RemoveWhitelist(ctx context.Context, itemID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM whitelist WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("remove whitelist: %w", err)
	}
	return nil
}

// Whitelist returns whitelisted IDs in insertion order.
func (s *Store) Whitelist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item_id FROM whitelist ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("read whitelist: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	return ids, nil
}
