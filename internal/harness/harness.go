package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/feedback"
	"github.com/roach88/isolate/internal/registry"
	"github.com/roach88/isolate/internal/store"
	"github.com/roach88/isolate/internal/testutil"
)

// tracingRegistry records every successful status change.
type tracingRegistry struct {
	*registry.Memory
	clock  *testutil.DeterministicClock
	result *Result
}

func (r *tracingRegistry) SetActive(ctx context.Context, id string, active bool) error {
	if err := r.Memory.SetActive(ctx, id, active); err != nil {
		return err
	}
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Type:   EventSet,
		Seq:    r.clock.Next(),
		Item:   id,
		Active: active,
	})
	return nil
}

// tracingFeedback records every question and checks that exactly the
// asked subset is active among the candidates while it is open.
type tracingFeedback struct {
	live       engine.Feedback
	registry   *registry.Memory
	candidates []string
	clock      *testutil.DeterministicClock
	result     *Result
}

func (f *tracingFeedback) Ask(ctx context.Context, q engine.Question) (bool, error) {
	subset := q.Subset.IDs()
	statuses := f.registry.Statuses()
	for _, id := range f.candidates {
		want := slices.Contains(subset, id)
		if statuses[id] != want {
			f.result.AddError("step %d: item %s active=%t while asking, want %t", q.Step, id, statuses[id], want)
		}
	}

	answer, err := f.live.Ask(ctx, q)
	event := TraceEvent{
		Type:   EventAsk,
		Seq:    f.clock.Next(),
		Step:   q.Step,
		Subset: subset,
	}
	if err != nil {
		event.Aborted = true
	} else {
		event.Answer = answer
	}
	f.result.Trace = append(f.result.Trace, event)
	return answer, err
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database and registry
//  2. Run a full session: capture, search, restore
//  3. Check the outcome against the expectation
//  4. Check that every item is back in its starting status
//  5. Evaluate assertions
//
// An aborted search is a normal outcome and fails only if the scenario
// expected completion. Any other session error is returned.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	wall := testutil.NewWallClock(0)
	st, err := store.Open(":memory:", store.WithClock(wall.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewDeterministicClock()
	result := NewResult()

	mem := registry.NewMemory(scenario.HostID, scenario.Kind, scenario.itemSet())
	before := mem.Statuses()
	candidates, err := mem.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var live engine.Feedback
	if scenario.Culprit != "" {
		live = feedback.NewOracle(scenario.Culprit)
	} else {
		live = feedback.NewScripted(scenario.Answers...)
	}

	sess := engine.NewSession(engine.SessionConfig{
		Registry: &tracingRegistry{Memory: mem, clock: clock, result: result},
		Feedback: &tracingFeedback{
			live:       live,
			registry:   mem,
			candidates: candidates.IDs(),
			clock:      clock,
			result:     result,
		},
		Store:  st,
		IDs:    testutil.NewFixedSessionGenerator(scenario.SessionID),
		Clock:  wall,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	outcome, runErr := sess.Run(ctx)
	if runErr != nil && !engine.IsAbortError(runErr) {
		return nil, fmt.Errorf("session failed: %w", runErr)
	}

	culprit := ""
	if outcome.Culprit != nil {
		culprit = outcome.Culprit.ID
	}
	result.SessionID = outcome.SessionID
	result.Trace = append(result.Trace, TraceEvent{
		Type:      EventResult,
		Seq:       clock.Next(),
		Status:    string(outcome.Status),
		Culprit:   culprit,
		Questions: len(outcome.Steps),
	})
	result.State = mem.Statuses()

	checkExpectation(result, scenario.Expect, string(outcome.Status), culprit, len(outcome.Steps))
	for _, f := range outcome.Restore.Failures {
		result.AddError("restore: %s", f.String())
	}
	checkRestored(result, before)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError("%s", msg)
	}
	return result, nil
}

func checkExpectation(result *Result, want Expectation, status, culprit string, questions int) {
	if status != want.Status {
		result.AddError("status = %s, want %s", status, want.Status)
	}
	if want.Culprit != nil && culprit != *want.Culprit {
		result.AddError("culprit = %q, want %q", culprit, *want.Culprit)
	}
	if want.Questions != nil && questions != *want.Questions {
		result.AddError("questions = %d, want %d", questions, *want.Questions)
	}
}

func checkRestored(result *Result, before map[string]bool) {
	ids := make([]string, 0, len(before))
	for id := range before {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if result.State[id] != before[id] {
			result.AddError("item %s ended active=%t, started active=%t", id, result.State[id], before[id])
		}
	}
}
