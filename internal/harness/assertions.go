package harness

import (
	"fmt"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Token())
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result.State, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func matches(event TraceEvent, a Assertion) bool {
	if event.Type != a.Event {
		return false
	}
	if a.Item != "" && event.Item != a.Item {
		return false
	}
	if a.Active != nil && event.Active != *a.Active {
		return false
	}
	return true
}

func describe(a Assertion) string {
	desc := a.Event
	if a.Item != "" {
		desc += " " + a.Item
	}
	if a.Active != nil {
		desc += fmt.Sprintf(" active=%t", *a.Active)
	}
	return desc
}

// assertTraceContains checks that at least one event matches.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if matches(event, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the tokens appear in order. Other events
// may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(a.Tokens) && event.Token() == a.Tokens[next] {
			next++
		}
	}
	if next == len(a.Tokens) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Tokens, " "),
		Actual:   fmt.Sprintf("matched up to %q", strings.Join(a.Tokens[:next], " ")),
		Trace:    trace,
	}
}

// assertTraceCount checks the exact number of matching events.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, describe(a)),
		Actual:   fmt.Sprintf("%d", count),
		Trace:    trace,
	}
}

// assertFinalState checks the final status of the listed items.
func assertFinalState(state map[string]bool, a Assertion) error {
	ids := make([]string, 0, len(a.State))
	for id := range a.State {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var wrong []string
	for _, id := range ids {
		got, ok := state[id]
		switch {
		case !ok:
			wrong = append(wrong, id+" missing")
		case got != a.State[id]:
			wrong = append(wrong, fmt.Sprintf("%s active=%t", id, got))
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	return fmt.Errorf("final_state: %s", strings.Join(wrong, ", "))
}
