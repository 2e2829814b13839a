package ir

import "fmt"

// Snapshot records the active status of every candidate at the moment a
// search begins. Order preserves capture order so restoration is
// deterministic.
type Snapshot struct {
	SessionID string
	Order     []string
	Active    map[string]bool
}

// NewSnapshot builds a snapshot from the items' current status. Duplicate IDs
// keep their first occurrence.
func NewSnapshot(sessionID string, items ItemSet) Snapshot {
	snap := Snapshot{
		SessionID: sessionID,
		Order:     make([]string, 0, len(items)),
		Active:    make(map[string]bool, len(items)),
	}
	for _, item := range items {
		if _, dup := snap.Active[item.ID]; dup {
			continue
		}
		snap.Order = append(snap.Order, item.ID)
		snap.Active[item.ID] = item.Active
	}
	return snap
}

// SnapshotFromLists rebuilds a snapshot from the persisted key layout.
// An ID present in both lists is an error.
func SnapshotFromLists(sessionID string, active, inactive []string) (Snapshot, error) {
	snap := Snapshot{
		SessionID: sessionID,
		Order:     make([]string, 0, len(active)+len(inactive)),
		Active:    make(map[string]bool, len(active)+len(inactive)),
	}
	for _, id := range active {
		snap.Order = append(snap.Order, id)
		snap.Active[id] = true
	}
	for _, id := range inactive {
		if _, dup := snap.Active[id]; dup {
			return Snapshot{}, fmt.Errorf("snapshot: %q recorded as both active and inactive", id)
		}
		snap.Order = append(snap.Order, id)
		snap.Active[id] = false
	}
	return snap, nil
}

// Status returns the recorded status for id and whether id was captured.
func (s Snapshot) Status(id string) (active bool, ok bool) {
	active, ok = s.Active[id]
	return active, ok
}

// ActiveIDs returns captured IDs that were active, in capture order.
func (s Snapshot) ActiveIDs() []string {
	return s.filter(true)
}

// InactiveIDs returns captured IDs that were inactive, in capture order.
func (s Snapshot) InactiveIDs() []string {
	return s.filter(false)
}

// Len returns the number of captured items.
func (s Snapshot) Len() int {
	return len(s.Order)
}

func (s Snapshot) filter(want bool) []string {
	ids := []string{}
	for _, id := range s.Order {
		if s.Active[id] == want {
			ids = append(ids, id)
		}
	}
	return ids
}

// Digest returns the content-addressed identity of the snapshot. Two
// snapshots with the same partition (regardless of session) share a digest.
func (s Snapshot) Digest() (string, error) {
	active := make([]any, 0, len(s.Order))
	for _, id := range s.ActiveIDs() {
		active = append(active, id)
	}
	inactive := make([]any, 0, len(s.Order))
	for _, id := range s.InactiveIDs() {
		inactive = append(inactive, id)
	}
	canonical, err := MarshalCanonical(map[string]any{
		"active":   active,
		"inactive": inactive,
	})
	if err != nil {
		return "", fmt.Errorf("snapshot digest: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
