package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/isolate/internal/ir"
)

// ErrUnknownItem is returned for an ID the registry does not know.
var ErrUnknownItem = errors.New("unknown item")

// Toggle is one SetActive call observed by a Memory registry.
type Toggle struct {
	ID     string
	Active bool
}

// Memory is an in-process Registry. It records every SetActive call and
// can be told to fail for specific items.
type Memory struct {
	mu      sync.Mutex
	hostID  string
	kind    string
	items   ir.ItemSet
	toggles []Toggle
	failSet map[string]error
	failAll error
}

// NewMemory creates a Memory registry over a copy of items.
func NewMemory(hostID, kind string, items ir.ItemSet) *Memory {
	if kind == "" {
		kind = ir.DefaultKind
	}
	cp := make(ir.ItemSet, len(items))
	copy(cp, items)
	return &Memory{
		hostID:  hostID,
		kind:    kind,
		items:   cp,
		failSet: map[string]error{},
	}
}

// FailSet makes SetActive for id return err. A nil err clears it.
func (m *Memory) FailSet(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failSet, id)
		return
	}
	m.failSet[id] = err
}

// FailAll makes every call return err. A nil err clears it.
func (m *Memory) FailAll(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = err
}

// Add appends an item, e.g. one installed mid-search.
func (m *Memory) Add(item ir.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
}

// Remove drops an item, e.g. one uninstalled mid-search.
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
			return
		}
	}
}

// ListCandidates returns candidate items in insertion order.
func (m *Memory) ListCandidates(ctx context.Context) (ir.ItemSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}

	items := ir.ItemSet{}
	for _, item := range m.items {
		if item.ID == m.hostID || item.Kind != m.kind {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// SetActive sets id's status and records the call.
func (m *Memory) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failSet[id]; ok {
		return err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Active = active
			m.toggles = append(m.toggles, Toggle{ID: id, Active: active})
			return nil
		}
	}
	return fmt.Errorf("set %s: %w", id, ErrUnknownItem)
}

// Active returns id's current status.
func (m *Memory) Active(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return false, m.failAll
	}
	for _, item := range m.items {
		if item.ID == id {
			return item.Active, nil
		}
	}
	return false, fmt.Errorf("read %s: %w", id, ErrUnknownItem)
}

// Statuses returns id -> active for every item, candidates or not.
func (m *Memory) Statuses() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.items))
	for _, item := range m.items {
		out[item.ID] = item.Active
	}
	return out
}

// Toggles returns every recorded SetActive call in order.
func (m *Memory) Toggles() []Toggle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toggle, len(m.toggles))
	copy(out, m.toggles)
	return out
}

// ResetToggles clears the toggle log.
func (m *Memory) ResetToggles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles = nil
}
