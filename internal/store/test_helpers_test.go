package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/isolate/internal/ir"
)

var testEpoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// createTestStore creates a new file-backed store for testing with a
// fixed clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return testEpoch }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot builds a snapshot where ids prefixed with "off-" are
// inactive.
func createTestSnapshot(sessionID string, ids ...string) ir.Snapshot {
	items := make(ir.ItemSet, len(ids))
	for i, id := range ids {
		items[i] = ir.Item{ID: id, Active: len(id) < 4 || id[:4] != "off-"}
	}
	return ir.NewSnapshot(sessionID, items)
}

// createTestSession inserts a running session.
func createTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.BeginSession(t.Context(), ir.Session{
		ID:             id,
		Status:         ir.SessionRunning,
		SnapshotDigest: "digest-" + id,
		StartedAt:      testEpoch,
	})
	if err != nil {
		t.Fatalf("BeginSession() failed: %v", err)
	}
}
