package engine

import (
	"context"

	"github.com/roach88/isolate/internal/ir"
)

// Registry enumerates candidate items and toggles their status.
//
// SetActive must have taken effect when it returns; the engine relies on
// this to never ask a question against stale state.
type Registry interface {
	ListCandidates(ctx context.Context) (ir.ItemSet, error)
	SetActive(ctx context.Context, id string, active bool) error
	Active(ctx context.Context, id string) (bool, error)
}

// Question is what the engine asks the human at each step.
type Question struct {
	// Step is the zero-based search step.
	Step int

	// Subset is the half that is active while the question is open.
	Subset ir.ItemSet

	// Remaining is the number of candidates before this split.
	Remaining int
}

// Feedback asks a human whether the problem persists.
//
// Ask returns true if the problem is still observed with only q.Subset
// active. It blocks until answered; a dismissal returns an error wrapping
// ErrFeedbackAborted.
type Feedback interface {
	Ask(ctx context.Context, q Question) (bool, error)
}

// StepRecorder receives every answered step.
type StepRecorder interface {
	RecordStep(ctx context.Context, step ir.Step) error
}

// SnapshotStore persists the pre-search snapshot durably.
type SnapshotStore interface {
	// SaveSnapshot persists snap. It fails if another snapshot is pending.
	SaveSnapshot(ctx context.Context, snap ir.Snapshot) error

	// LoadSnapshot returns the pending snapshot, if any.
	LoadSnapshot(ctx context.Context) (ir.Snapshot, bool, error)

	// DiscardSnapshot removes the pending snapshot owned by sessionID.
	DiscardSnapshot(ctx context.Context, sessionID string) error
}

// Journal persists session records and answered steps.
type Journal interface {
	BeginSession(ctx context.Context, session ir.Session) error
	FinishSession(ctx context.Context, sessionID string, status ir.SessionStatus, culpritID string) error
	// MarkRestored records that the session's snapshot was restored. A
	// session still marked running is closed as aborted.
	MarkRestored(ctx context.Context, sessionID string) error
	RecordStep(ctx context.Context, sessionID string, step ir.Step) error
	Steps(ctx context.Context, sessionID string) ([]ir.Step, error)
}

// StateStore is the durable state a Session needs.
type StateStore interface {
	SnapshotStore
	Journal
}

// Surface is the human-facing surface hosting a session. Closing it from
// outside is the signal to restore an abandoned search.
type Surface interface {
	Open(sessionID string) error
	Close() error
}
