package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/isolate/internal/ir"
)

// toCanonicalMap converts a result to the map form ir.MarshalCanonical
// accepts. Only the fields of each event kind are included.
func (r *Result) toCanonicalMap(scenarioName string) map[string]any {
	trace := make([]any, len(r.Trace))
	for i, event := range r.Trace {
		m := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		switch event.Type {
		case EventSet:
			m["item"] = event.Item
			m["active"] = event.Active
		case EventAsk:
			m["step"] = event.Step
			m["subset"] = event.Subset
			if event.Aborted {
				m["aborted"] = true
			} else {
				m["answer"] = event.Answer
			}
		case EventResult:
			m["status"] = event.Status
			m["questions"] = event.Questions
			if event.Culprit != "" {
				m["culprit"] = event.Culprit
			}
		}
		trace[i] = m
	}

	return map[string]any{
		"scenario_name": scenarioName,
		"session_id":    r.SessionID,
		"trace":         trace,
	}
}

// TraceJSON returns the canonical JSON form of a result's trace.
func TraceJSON(scenarioName string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(result.toCanonicalMap(scenarioName))
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := TraceJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
