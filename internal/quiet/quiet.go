package quiet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/store"
)

// State is the durable state quiet mode needs.
type State interface {
	Bool(ctx context.Context, key string) (bool, error)
	PutBool(ctx context.Context, key string, value bool) error
	Strings(ctx context.Context, key string) ([]string, error)
	PutStrings(ctx context.Context, key string, values []string) error
	Delete(ctx context.Context, key string) error
	Whitelist(ctx context.Context) ([]string, error)
	LoadSnapshot(ctx context.Context) (ir.Snapshot, bool, error)
}

// Report describes what one toggle changed.
type Report struct {
	// On is the quiet mode state after the toggle.
	On       bool                    `json:"on"`
	Enabled  []string                `json:"enabled"`
	Disabled []string                `json:"disabled"`
	Failures []engine.RestoreFailure `json:"failures,omitempty"`
}

// Status reports whether quiet mode is on and which items it will bring
// back when turned off.
func Status(ctx context.Context, st State) (on bool, remembered []string, err error) {
	on, err = st.Bool(ctx, store.KeyQuietOn)
	if err != nil {
		return false, nil, fmt.Errorf("read quiet flag: %w", err)
	}
	remembered, err = st.Strings(ctx, store.KeyQuietLastActive)
	if err != nil {
		return false, nil, fmt.Errorf("read quiet items: %w", err)
	}
	return on, remembered, nil
}

// Toggle flips quiet mode.
//
// Turning it on remembers the currently active candidates and disables
// every candidate not on the whitelist. Turning it off re-enables the
// remembered candidates that are still installed. Both directions are
// refused while a search snapshot is pending. Individual toggle failures
// are reported and skipped.
func Toggle(ctx context.Context, reg engine.Registry, st State) (Report, error) {
	if snap, pending, err := st.LoadSnapshot(ctx); err != nil {
		return Report{}, fmt.Errorf("check pending snapshot: %w", err)
	} else if pending {
		return Report{}, &engine.SearchError{
			Code:    engine.ErrCodeSessionPending,
			Message: fmt.Sprintf("session %s is still running or unrestored", snap.SessionID),
			Step:    -1,
		}
	}

	on, remembered, err := Status(ctx, st)
	if err != nil {
		return Report{}, err
	}
	items, err := reg.ListCandidates(ctx)
	if err != nil {
		return Report{}, &engine.SearchError{
			Code:    engine.ErrCodeRegistryUnavailable,
			Message: "list candidates",
			Step:    -1,
			Err:     err,
		}
	}

	if on {
		return turnOff(ctx, reg, st, items, remembered)
	}
	return turnOn(ctx, reg, st, items)
}

func turnOn(ctx context.Context, reg engine.Registry, st State, items ir.ItemSet) (Report, error) {
	whitelist, err := st.Whitelist(ctx)
	if err != nil {
		return Report{}, err
	}

	active := []string{}
	for _, item := range items {
		isActive, err := reg.Active(ctx, item.ID)
		if err != nil {
			return Report{}, &engine.SearchError{
				Code:    engine.ErrCodeRegistryUnavailable,
				Message: "read item status",
				ItemID:  item.ID,
				Step:    -1,
				Err:     err,
			}
		}
		if isActive {
			active = append(active, item.ID)
		}
	}

	// Persist before touching anything so a crash midway still leaves
	// quiet mode on and reversible.
	if err := st.PutStrings(ctx, store.KeyQuietLastActive, active); err != nil {
		return Report{}, fmt.Errorf("remember active items: %w", err)
	}
	if err := st.PutBool(ctx, store.KeyQuietOn, true); err != nil {
		return Report{}, fmt.Errorf("set quiet flag: %w", err)
	}

	report := Report{On: true, Enabled: []string{}, Disabled: []string{}}
	for _, item := range items {
		if slices.Contains(whitelist, item.ID) {
			continue
		}
		set(ctx, reg, item.ID, false, &report)
	}
	slog.Info("quiet mode on", "disabled", len(report.Disabled), "failures", len(report.Failures))
	return report, nil
}

func turnOff(ctx context.Context, reg engine.Registry, st State, items ir.ItemSet, remembered []string) (Report, error) {
	report := Report{On: false, Enabled: []string{}, Disabled: []string{}}
	for _, id := range remembered {
		if _, ok := items.Lookup(id); !ok {
			slog.Debug("remembered item no longer installed", "item", id)
			continue
		}
		set(ctx, reg, id, true, &report)
	}

	if err := st.PutBool(ctx, store.KeyQuietOn, false); err != nil {
		return report, fmt.Errorf("clear quiet flag: %w", err)
	}
	if err := st.Delete(ctx, store.KeyQuietLastActive); err != nil {
		return report, fmt.Errorf("forget active items: %w", err)
	}
	slog.Info("quiet mode off", "enabled", len(report.Enabled), "failures", len(report.Failures))
	return report, nil
}

func set(ctx context.Context, reg engine.Registry, id string, active bool, report *Report) {
	if err := reg.SetActive(ctx, id, active); err != nil {
		slog.Warn("quiet toggle failed for item", "item", id, "want_active", active, "error", err)
		report.Failures = append(report.Failures, engine.RestoreFailure{ID: id, Want: active, Err: err})
		return
	}
	if active {
		report.Enabled = append(report.Enabled, id)
	} else {
		report.Disabled = append(report.Disabled, id)
	}
}
