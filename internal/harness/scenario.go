package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/isolate/internal/ir"
)

// Scenario defines one search run and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// HostID is the tool's own entry, excluded from candidates.
	HostID string `yaml:"host_id,omitempty"`

	// Kind is the candidate kind. Defaults to ir.DefaultKind.
	Kind string `yaml:"kind,omitempty"`

	// SessionID fixes the session ID. Defaults to testutil.DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Items are the installed add-ons in registry order.
	Items []ItemSpec `yaml:"items"`

	// Culprit makes the user answer as if this item were faulty.
	Culprit string `yaml:"culprit,omitempty"`

	// Answers are fixed answers used when Culprit is empty. The session
	// aborts when they run out.
	Answers []bool `yaml:"answers,omitempty"`

	// Expect is the session outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ItemSpec is one installed add-on.
type ItemSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// Expectation is the expected session outcome.
type Expectation struct {
	// Status is completed or aborted.
	Status string `yaml:"status"`

	// Culprit is the expected culprit ID; an empty string expects none.
	// Nil skips the check.
	Culprit *string `yaml:"culprit,omitempty"`

	// Questions is the expected number of questions. Nil skips the check.
	Questions *int `yaml:"questions,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is trace_contains, trace_order, trace_count or final_state.
	Type string `yaml:"type"`

	// Event is the event kind (set, ask, result) for trace_contains and
	// trace_count.
	Event string `yaml:"event,omitempty"`

	// Item narrows set events to one item.
	Item string `yaml:"item,omitempty"`

	// Active narrows set events to one direction.
	Active *bool `yaml:"active,omitempty"`

	// Count is the expected number of matches for trace_count.
	Count int `yaml:"count,omitempty"`

	// Tokens is the expected order for trace_order: "+id" and "-id" for
	// status changes, "ask" and "result" for the other events.
	Tokens []string `yaml:"tokens,omitempty"`

	// State maps item IDs to their expected final status.
	State map[string]bool `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Culprit != "" && len(s.Answers) > 0 {
		return fmt.Errorf("culprit and answers are mutually exclusive")
	}

	seen := make(map[string]bool, len(s.Items))
	for i, item := range s.Items {
		if item.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if seen[item.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = true
	}
	if s.Culprit != "" && !seen[s.Culprit] {
		return fmt.Errorf("culprit %q is not an item", s.Culprit)
	}

	switch ir.SessionStatus(s.Expect.Status) {
	case ir.SessionCompleted, ir.SessionAborted:
	case "":
		return fmt.Errorf("expect.status is required")
	default:
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if !validEvent(a.Event) {
			return fmt.Errorf("assertions[%d]: event must be set, ask or result for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Tokens) == 0 {
			return fmt.Errorf("assertions[%d]: tokens list is required for trace_order", index)
		}
	case AssertTraceCount:
		if !validEvent(a.Event) {
			return fmt.Errorf("assertions[%d]: event must be set, ask or result for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.State) == 0 {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validEvent(e string) bool {
	return e == EventSet || e == EventAsk || e == EventResult
}

func (s *Scenario) itemSet() ir.ItemSet {
	items := make(ir.ItemSet, len(s.Items))
	for i, spec := range s.Items {
		kind := spec.Type
		if kind == "" {
			kind = ir.DefaultKind
		}
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		items[i] = ir.Item{ID: spec.ID, Name: name, Kind: kind, Active: spec.Enabled}
	}
	return items
}
