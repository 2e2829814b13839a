package ir

import (
	"errors"
	"time"
)

// DefaultKind is the only item kind considered a search candidate unless
// configured otherwise.
const DefaultKind = "extension"

// Icon is presentation metadata for an item. The engine never reads it.
type Icon struct {
	Size int    `json:"size" yaml:"size"`
	URL  string `json:"url" yaml:"url"`
}

// Item is a single candidate add-on.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
	Description string `json:"description,omitempty"`
	Icons       []Icon `json:"icons,omitempty"`
}

// ItemSet is an ordered sequence of items in registry enumeration order.
type ItemSet []Item

// IDs returns the identifiers of the set in order.
func (s ItemSet) IDs() []string {
	ids := make([]string, len(s))
	for i, item := range s {
		ids[i] = item.ID
	}
	return ids
}

// Split divides the set at floor(n/2). For odd n the first half is the
// strictly smaller one. Both halves share the backing array of s and must
// be treated as read-only.
func (s ItemSet) Split() (first, second ItemSet) {
	half := len(s) / 2
	return s[:half:half], s[half:]
}

// Lookup returns the item with the given ID.
func (s ItemSet) Lookup(id string) (Item, bool) {
	for _, item := range s {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Step records one question of a bisection search.
type Step struct {
	Index      int      `json:"index"`
	FirstHalf  []string `json:"first_half"`
	SecondHalf []string `json:"second_half"`
	Answer     bool     `json:"answer"`
}

// SessionStatus is the lifecycle state of a search session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionAborted   SessionStatus = "aborted"
)

// ErrSessionNotFound reports a session with no persisted record.
var ErrSessionNotFound = errors.New("not found")

// Session is the persisted record of one search invocation.
type Session struct {
	ID             string        `json:"id"`
	Status         SessionStatus `json:"status"`
	CulpritID      string        `json:"culprit_id,omitempty"`
	SnapshotDigest string        `json:"snapshot_digest"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	RestoredAt     *time.Time    `json:"restored_at,omitempty"`
}
