package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/isolate/internal/testutil"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ScenarioA_TraceTokens(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_a_first_quarter.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []string{
		"+a", "+b", "-c", "-d", "ask", "-a", "-b",
		"+a", "-b", "ask", "-a",
		"+a", "+b", "+c", "+d",
		"result",
	}, result.Tokens())
	assert.Equal(t, testutil.DefaultSessionID, result.SessionID)
}

func TestRun_SeqIsMonotonic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_b_culprit_last.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	for i, event := range result.Trace {
		assert.Equal(t, int64(i+1), event.Seq)
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_mixed_kinds.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := TraceJSON(scenario.Name, first)
	require.NoError(t, err)
	b, err := TraceJSON(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_AbortRecordsAbortedAsk(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/scenario_abort_restores.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	var asks []TraceEvent
	for _, e := range result.Trace {
		if e.Type == EventAsk {
			asks = append(asks, e)
		}
	}
	require.Len(t, asks, 2)
	assert.False(t, asks[0].Aborted)
	assert.True(t, asks[1].Aborted)
	assert.Equal(t, []string{"c"}, asks[1].Subset)

	last := result.Trace[len(result.Trace)-1]
	assert.Equal(t, EventResult, last.Type)
	assert.Equal(t, "aborted", last.Status)
	assert.Equal(t, 1, last.Questions)
	assert.Equal(t, "abort-session", result.SessionID)
}

func TestRun_WrongExpectationFails(t *testing.T) {
	scenario := mustParse(t, `
name: wrong_expectation
description: expects the wrong culprit
items:
  - {id: a, enabled: true}
  - {id: b, enabled: true}
culprit: b
expect:
  status: completed
  culprit: a
  questions: 3
`)
	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, `culprit = "b", want "a"`)
	assert.Contains(t, result.Errors, "questions = 1, want 3")
}

func TestRun_UnexpectedAbortFails(t *testing.T) {
	scenario := mustParse(t, `
name: unexpected_abort
description: runs out of answers but expects completion
items:
  - {id: a, enabled: true}
  - {id: b, enabled: true}
  - {id: c, enabled: true}
answers: [false]
expect:
  status: completed
`)
	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors, "status = aborted, want completed")
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, result.State)
}

func TestRun_FailingAssertionReportsTrace(t *testing.T) {
	scenario := mustParse(t, `
name: failing_assertion
description: asserts an order that never happens
items:
  - {id: a, enabled: true}
  - {id: b, enabled: true}
culprit: a
expect:
  status: completed
assertions:
  - type: trace_order
    tokens: ["-b", "+b", "-a"]
`)
	result, err := Run(scenario)
	require.NoError(t, err)

	require.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "Full trace:")
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nexpect: {status: completed}\n",
			want: "name is required",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nassertion: []\nexpect: {status: completed}\n",
			want: "failed to parse YAML",
		},
		{
			name: "culprit and answers",
			yaml: "name: n\ndescription: d\nitems: [{id: a}]\nculprit: a\nanswers: [true]\nexpect: {status: completed}\n",
			want: "mutually exclusive",
		},
		{
			name: "culprit not an item",
			yaml: "name: n\ndescription: d\nitems: [{id: a}]\nculprit: z\nexpect: {status: completed}\n",
			want: `culprit "z" is not an item`,
		},
		{
			name: "duplicate item",
			yaml: "name: n\ndescription: d\nitems: [{id: a}, {id: a}]\nexpect: {status: completed}\n",
			want: `duplicate id "a"`,
		},
		{
			name: "missing status",
			yaml: "name: n\ndescription: d\n",
			want: "expect.status is required",
		},
		{
			name: "unknown status",
			yaml: "name: n\ndescription: d\nexpect: {status: running}\n",
			want: `unknown status "running"`,
		},
		{
			name: "bad assertion type",
			yaml: "name: n\ndescription: d\nexpect: {status: completed}\nassertions: [{type: nope}]\n",
			want: `unknown assertion type "nope"`,
		},
		{
			name: "trace_count without event",
			yaml: "name: n\ndescription: d\nexpect: {status: completed}\nassertions: [{type: trace_count, count: 1}]\n",
			want: "event must be set, ask or result",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_ItemDefaults(t *testing.T) {
	scenario := mustParse(t, `
name: defaults
description: item defaults
items:
  - {id: a}
  - {id: b, name: Bee, type: theme, enabled: true}
expect:
  status: completed
`)
	items := scenario.itemSet()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, "extension", items[0].Kind)
	assert.False(t, items[0].Active)
	assert.Equal(t, "Bee", items[1].Name)
	assert.Equal(t, "theme", items[1].Kind)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to read scenario file"))
}

func mustParse(t *testing.T, data string) *Scenario {
	t.Helper()
	scenario, err := ParseScenario([]byte(data))
	require.NoError(t, err)
	return scenario
}
