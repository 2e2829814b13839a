package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/isolate/internal/ir"
)

// CaptureSnapshot reads the current status of every item through the
// registry and persists it before anything is toggled.
//
// A registry failure returns a SearchError and nothing is persisted, so
// there is never a snapshot to restore from a capture that did not finish.
func CaptureSnapshot(ctx context.Context, reg Registry, items ir.ItemSet, sessionID string, sink SnapshotStore) (ir.Snapshot, error) {
	current := make(ir.ItemSet, len(items))
	for i, item := range items {
		active, err := reg.Active(ctx, item.ID)
		if err != nil {
			return ir.Snapshot{}, registryError("read item status", item.ID, -1, err)
		}
		current[i] = item
		current[i].Active = active
	}

	snap := ir.NewSnapshot(sessionID, current)
	if err := sink.SaveSnapshot(ctx, snap); err != nil {
		return ir.Snapshot{}, fmt.Errorf("persist snapshot: %w", err)
	}
	slog.Debug("snapshot captured",
		"session", sessionID,
		"active", len(snap.ActiveIDs()),
		"inactive", len(snap.InactiveIDs()))
	return snap, nil
}

// RestoreFailure records one item whose status could not be re-applied.
type RestoreFailure struct {
	ID   string `json:"id"`
	Want bool   `json:"want_active"`
	Err  error  `json:"-"`
}

// String formats the failure for text output.
func (f RestoreFailure) String() string {
	return fmt.Sprintf("%s (want active=%t): %v", f.ID, f.Want, f.Err)
}

// RestoreReport summarizes a restoration.
type RestoreReport struct {
	SessionID string           `json:"session_id"`
	Restored  []string         `json:"restored"`
	Untracked []string         `json:"untracked,omitempty"`
	Failures  []RestoreFailure `json:"failures,omitempty"`
}

// OK returns true if every tracked item was restored.
func (r RestoreReport) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the individual failures, or returns nil.
func (r RestoreReport) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = fmt.Errorf("restore %s: %w", f.ID, f.Err)
	}
	return errors.Join(errs...)
}

// Restore sets every item of current that appears in snap back to its
// recorded status. Items absent from the snapshot did not exist at capture
// time and are left untouched.
//
// Restore is a cleanup step and never fails as a whole: each item that
// cannot be set is logged, recorded in the report, and skipped.
func Restore(ctx context.Context, reg Registry, snap ir.Snapshot, current ir.ItemSet) RestoreReport {
	report := RestoreReport{SessionID: snap.SessionID, Restored: []string{}}
	for _, item := range current {
		want, ok := snap.Status(item.ID)
		if !ok {
			report.Untracked = append(report.Untracked, item.ID)
			continue
		}
		if err := reg.SetActive(ctx, item.ID, want); err != nil {
			slog.Warn("restore failed for item", "session", snap.SessionID, "item", item.ID, "want_active", want, "error", err)
			report.Failures = append(report.Failures, RestoreFailure{ID: item.ID, Want: want, Err: err})
			continue
		}
		report.Restored = append(report.Restored, item.ID)
	}
	return report
}

// RestorePending restores the pending snapshot, if any, discards it and
// marks its session restored. It is safe to call when nothing is pending.
//
// If the registry cannot list candidates, the snapshot's own IDs are used
// as the current set, so every captured item still gets an attempt.
func RestorePending(ctx context.Context, reg Registry, st StateStore) (RestoreReport, bool, error) {
	snap, ok, err := st.LoadSnapshot(ctx)
	if err != nil {
		return RestoreReport{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return RestoreReport{}, false, nil
	}
	report, err := restoreAndDiscard(ctx, reg, st, snap)
	return report, true, err
}

func restoreAndDiscard(ctx context.Context, reg Registry, st StateStore, snap ir.Snapshot) (RestoreReport, error) {
	// Cleanup runs even when the caller's context is already cancelled.
	ctx = context.WithoutCancel(ctx)

	current, err := reg.ListCandidates(ctx)
	if err != nil {
		slog.Warn("listing candidates for restore failed, using snapshot ids", "session", snap.SessionID, "error", err)
		current = snapshotItems(snap)
	}

	report := Restore(ctx, reg, snap, current)
	slog.Info("snapshot restored",
		"session", snap.SessionID,
		"restored", len(report.Restored),
		"failures", len(report.Failures))

	if err := st.DiscardSnapshot(ctx, snap.SessionID); err != nil {
		return report, fmt.Errorf("discard snapshot: %w", err)
	}
	if err := st.MarkRestored(ctx, snap.SessionID); errors.Is(err, ir.ErrSessionNotFound) {
		// The process stopped between saving the snapshot and recording
		// the session.
		slog.Debug("restored snapshot has no session record", "session", snap.SessionID)
	} else if err != nil {
		return report, fmt.Errorf("mark session restored: %w", err)
	}
	return report, nil
}

func snapshotItems(snap ir.Snapshot) ir.ItemSet {
	items := make(ir.ItemSet, len(snap.Order))
	for i, id := range snap.Order {
		items[i] = ir.Item{ID: id, Active: snap.Active[id]}
	}
	return items
}
