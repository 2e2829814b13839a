package quiet

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/isolate/internal/engine"
)

// ErrNotCandidate is returned when whitelisting an ID that is not a
// search candidate.
var ErrNotCandidate = errors.New("not a candidate item")

// WhitelistStore persists the whitelist.
type WhitelistStore interface {
	AddWhitelist(ctx context.Context, itemID string) error
	RemoveWhitelist(ctx context.Context, itemID string) error
	Whitelist(ctx context.Context) ([]string, error)
}

// Allow puts id on the whitelist and enables it, so quiet mode keeps it
// running.
func Allow(ctx context.Context, reg engine.Registry, st WhitelistStore, id string) error {
	items, err := reg.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}
	if _, ok := items.Lookup(id); !ok {
		return fmt.Errorf("whitelist %s: %w", id, ErrNotCandidate)
	}
	if err := st.AddWhitelist(ctx, id); err != nil {
		return err
	}
	if err := reg.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("enable %s: %w", id, err)
	}
	return nil
}

// Disallow takes id off the whitelist and disables it. An ID that is no
// longer installed is only removed from the whitelist.
func Disallow(ctx context.Context, reg engine.Registry, st WhitelistStore, id string) error {
	if err := st.RemoveWhitelist(ctx, id); err != nil {
		return err
	}
	items, err := reg.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}
	if _, ok := items.Lookup(id); !ok {
		return nil
	}
	if err := reg.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("disable %s: %w", id, err)
	}
	return nil
}

// Entry is a whitelisted ID and whether it is still installed.
type Entry struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Installed bool   `json:"installed"`
}

// List returns the whitelist joined with the registry.
func List(ctx context.Context, reg engine.Registry, st WhitelistStore) ([]Entry, error) {
	ids, err := st.Whitelist(ctx)
	if err != nil {
		return nil, err
	}
	items, err := reg.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id}
		if item, ok := items.Lookup(id); ok {
			entries[i].Name = item.Name
			entries[i].Installed = true
		}
	}
	return entries, nil
}
