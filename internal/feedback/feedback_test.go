package feedback

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/ir"
)

var (
	_ engine.Feedback = (*Prompt)(nil)
	_ engine.Feedback = (*Line)(nil)
	_ engine.Feedback = (*Scripted)(nil)
	_ engine.Feedback = (*Oracle)(nil)
)

func question(step int, ids ...string) engine.Question {
	subset := make(ir.ItemSet, len(ids))
	for i, id := range ids {
		subset[i] = ir.Item{ID: id, Name: "Name " + id, Kind: ir.DefaultKind}
	}
	return engine.Question{Step: step, Subset: subset, Remaining: len(ids) * 2}
}

func TestQuestionText(t *testing.T) {
	assert.Equal(t, "This extension has been enabled. Are you still having issues?",
		QuestionText(question(0, "a").Subset))
	assert.Equal(t, "These extensions have been enabled. Are you still having issues?",
		QuestionText(question(0, "a", "b").Subset))
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "The extension possibly causing issues is: Dark Reader",
		ResultText(&ir.Item{ID: "dark", Name: "Dark Reader"}))
	assert.Equal(t, "The extension possibly causing issues is: dark",
		ResultText(&ir.Item{ID: "dark"}))
	assert.Equal(t, "There are no extensions to isolate.", ResultText(nil))
}

func TestRenderSubset(t *testing.T) {
	q := question(2, "a", "b")
	q.Subset[1].Description = "does things"

	out := RenderSubset(q)
	assert.Contains(t, out, "step 3, 4 candidates left")
	assert.Contains(t, out, "Name a")
	assert.Contains(t, out, "Name b")
	assert.Contains(t, out, "does things")
}

func TestRenderResult(t *testing.T) {
	assert.Contains(t, RenderResult(&ir.Item{ID: "x", Name: "Culprit X"}), "Culprit X")
	assert.Contains(t, RenderResult(nil), "no extensions")
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		in     string
		answer bool
		ok     bool
	}{
		{"y", true, true},
		{"YES\n", true, true},
		{" true ", true, true},
		{"1", true, true},
		{"n", false, true},
		{"No", false, true},
		{"false", false, true},
		{"0", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		answer, ok := ParseAnswer(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.answer, answer, "input %q", tt.in)
	}
}

func TestLine_Ask(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("y\nn\n"), &out)

	answer, err := l.Ask(t.Context(), question(0, "a", "b"))
	require.NoError(t, err)
	assert.True(t, answer)

	answer, err = l.Ask(t.Context(), question(1, "a"))
	require.NoError(t, err)
	assert.False(t, answer)

	assert.Contains(t, out.String(), "These extensions have been enabled.")
	assert.Contains(t, out.String(), "This extension has been enabled.")
	assert.Contains(t, out.String(), "[y/n]: ")
}

func TestLine_RepromptsOnGarbage(t *testing.T) {
	var out bytes.Buffer
	l := NewLine(strings.NewReader("what\n\nno\n"), &out)

	answer, err := l.Ask(t.Context(), question(0, "a"))
	require.NoError(t, err)
	assert.False(t, answer)
	assert.Equal(t, 2, strings.Count(out.String(), "Please answer y or n."))
}

func TestLine_FinalLineWithoutNewline(t *testing.T) {
	l := NewLine(strings.NewReader("y"), &bytes.Buffer{})

	answer, err := l.Ask(t.Context(), question(0, "a"))
	require.NoError(t, err)
	assert.True(t, answer)
}

func TestLine_EOFAborts(t *testing.T) {
	l := NewLine(strings.NewReader(""), &bytes.Buffer{})

	_, err := l.Ask(t.Context(), question(0, "a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrFeedbackAborted)
}

func TestLine_CancelledContext(t *testing.T) {
	l := NewLine(strings.NewReader("y\n"), &bytes.Buffer{})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := l.Ask(ctx, question(0, "a"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLine_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	l := NewLine(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := l.Ask(ctx, question(0, "a"))
	assert.ErrorIs(t, err, context.Canceled)

	// A line typed after the cancelled question answers the next one.
	go func() { _, _ = io.WriteString(pw, "y\n") }()
	answer, err := l.Ask(t.Context(), question(1, "a"))
	require.NoError(t, err)
	assert.True(t, answer)
}

func TestLine_ClosedInputStaysClosed(t *testing.T) {
	l := NewLine(strings.NewReader(""), &bytes.Buffer{})
	for step := range 2 {
		_, err := l.Ask(t.Context(), question(step, "a"))
		assert.ErrorIs(t, err, engine.ErrFeedbackAborted)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(true, false)

	answer, err := s.Ask(t.Context(), question(0, "a"))
	require.NoError(t, err)
	assert.True(t, answer)
	assert.Equal(t, 1, s.Remaining())

	answer, err = s.Ask(t.Context(), question(1, "a"))
	require.NoError(t, err)
	assert.False(t, answer)

	_, err = s.Ask(t.Context(), question(2, "a"))
	assert.ErrorIs(t, err, engine.ErrFeedbackAborted)
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript("y, n,yes")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Remaining())

	s, err = ParseScript("")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Remaining())

	_, err = ParseScript("y,perhaps")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer 2")
}

func TestOracle(t *testing.T) {
	o := NewOracle("c")

	answer, err := o.Ask(t.Context(), question(0, "a", "b"))
	require.NoError(t, err)
	assert.False(t, answer)

	answer, err = o.Ask(t.Context(), question(1, "c"))
	require.NoError(t, err)
	assert.True(t, answer)

	assert.Len(t, o.Asked(), 2)
}

func TestOracle_DrivesSearch(t *testing.T) {
	items := ir.ItemSet{
		{ID: "a", Kind: ir.DefaultKind, Active: true},
		{ID: "b", Kind: ir.DefaultKind, Active: true},
		{ID: "c", Kind: ir.DefaultKind, Active: true},
	}
	reg := &statusRegistry{status: map[string]bool{}}

	result, err := engine.NewSearcher(reg, NewOracle("c")).Run(t.Context(), items)
	require.NoError(t, err)
	require.NotNil(t, result.Culprit)
	assert.Equal(t, "c", result.Culprit.ID)
}

// statusRegistry is the smallest engine.Registry for driving a search.
type statusRegistry struct {
	status map[string]bool
}

func (r *statusRegistry) ListCandidates(context.Context) (ir.ItemSet, error) { return nil, nil }

func (r *statusRegistry) SetActive(_ context.Context, id string, active bool) error {
	r.status[id] = active
	return nil
}

func (r *statusRegistry) Active(_ context.Context, id string) (bool, error) {
	return r.status[id], nil
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "prompt": ModePrompt, "line": ModeLine} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("gui")
	assert.Error(t, err)
}

func TestNew_PicksLineForNonTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsTerminal(f))
	assert.False(t, IsTerminal(nil))
	assert.IsType(t, &Line{}, New(ModeAuto, f, &bytes.Buffer{}))
	assert.IsType(t, &Line{}, New(ModeLine, f, &bytes.Buffer{}))
	prompt, ok := New(ModePrompt, f, &bytes.Buffer{}).(*Prompt)
	require.True(t, ok)
	assert.True(t, prompt.accessible, "a prompt off a terminal reads plain lines")
}
