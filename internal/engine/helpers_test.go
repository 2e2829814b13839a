package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/registry"
	"github.com/roach88/isolate/internal/store"
)

// makeItems builds candidate items. IDs starting with "off-" are inactive.
func makeItems(ids ...string) ir.ItemSet {
	items := make(ir.ItemSet, len(ids))
	for i, id := range ids {
		items[i] = ir.Item{
			ID:     id,
			Name:   "Item " + id,
			Kind:   ir.DefaultKind,
			Active: len(id) < 4 || id[:4] != "off-",
		}
	}
	return items
}

func makeNumberedItems(n int) ir.ItemSet {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%03d", i)
	}
	return makeItems(ids...)
}

// feedbackFunc adapts a function to Feedback.
type feedbackFunc func(ctx context.Context, q Question) (bool, error)

func (f feedbackFunc) Ask(ctx context.Context, q Question) (bool, error) {
	return f(ctx, q)
}

// oracle answers true iff culprit is in the active subset and records
// every question it was asked.
type oracle struct {
	mu        sync.Mutex
	culprit   string
	questions []Question
}

func (o *oracle) Ask(_ context.Context, q Question) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.questions = append(o.questions, q)
	return slices.Contains(q.Subset.IDs(), o.culprit), nil
}

// scripted returns answers in order and aborts when they run out.
type scripted struct {
	answers []bool
	asked   int
}

func (s *scripted) Ask(_ context.Context, q Question) (bool, error) {
	if s.asked >= len(s.answers) {
		return false, fmt.Errorf("no scripted answer for step %d: %w", q.Step, ErrFeedbackAborted)
	}
	a := s.answers[s.asked]
	s.asked++
	return a, nil
}

// stepSink collects recorded steps.
type stepSink struct {
	steps []ir.Step
	err   error
}

func (s *stepSink) RecordStep(_ context.Context, step ir.Step) error {
	if s.err != nil {
		return s.err
	}
	s.steps = append(s.steps, step)
	return nil
}

// fakeSurface records Open/Close calls. openErr makes Open fail.
type fakeSurface struct {
	opened  []string
	closed  int
	openErr error
}

func (f *fakeSurface) Open(sessionID string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, sessionID)
	return nil
}

func (f *fakeSurface) Close() error {
	f.closed++
	return nil
}

func newMemoryRegistry(items ir.ItemSet) *registry.Memory {
	return registry.NewMemory("host", ir.DefaultKind, items)
}

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir() + "/isolate.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// toggleIDs flattens a toggle log to "+id"/"-id" strings.
func toggleIDs(toggles []registry.Toggle) []string {
	out := make([]string, len(toggles))
	for i, tg := range toggles {
		sign := "-"
		if tg.Active {
			sign = "+"
		}
		out[i] = sign + tg.ID
	}
	return out
}

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// fixedClock always returns the same instant.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
