package harness

import "fmt"

// Trace event kinds.
const (
	EventSet    = "set"
	EventAsk    = "ask"
	EventResult = "result"
)

// TraceEvent is one recorded step of a session.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	// set
	Item   string `json:"item,omitempty"`
	Active bool   `json:"active,omitempty"`

	// ask
	Step    int      `json:"step,omitempty"`
	Subset  []string `json:"subset,omitempty"`
	Answer  bool     `json:"answer,omitempty"`
	Aborted bool     `json:"aborted,omitempty"`

	// result
	Status    string `json:"status,omitempty"`
	Culprit   string `json:"culprit,omitempty"`
	Questions int    `json:"questions,omitempty"`
}

// Token renders the event in trace_order notation.
func (e TraceEvent) Token() string {
	if e.Type == EventSet {
		if e.Active {
			return "+" + e.Item
		}
		return "-" + e.Item
	}
	return e.Type
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation, assertion and invariant held.
	Pass bool `json:"pass"`

	SessionID string `json:"session_id"`

	// Trace contains every status change, question and the result in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is every item's status after the session.
	State map[string]bool `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  map[string]bool{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Tokens returns the trace in trace_order notation.
func (r *Result) Tokens() []string {
	tokens := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		tokens[i] = e.Token()
	}
	return tokens
}
