package feedback

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"

	"github.com/roach88/isolate/internal/engine"
)

// Prompt asks through an interactive terminal confirm.
type Prompt struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// PromptOption configures a Prompt.
type PromptOption func(*Prompt)

// WithAccessible switches the form to huh's accessible mode, which reads
// plain lines instead of driving the terminal.
func WithAccessible(on bool) PromptOption {
	return func(p *Prompt) {
		p.accessible = on
	}
}

// NewPrompt creates a Prompt reading in and drawing on out.
func NewPrompt(in io.Reader, out io.Writer, opts ...PromptOption) *Prompt {
	p := &Prompt{in: in, out: out}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ask implements engine.Feedback. Ctrl-C or Esc dismisses the question,
// which aborts the search. So do a cancelled ctx and input that ends
// before an answer.
func (p *Prompt) Ask(ctx context.Context, q engine.Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("step %d: %w: %w", q.Step, engine.ErrFeedbackAborted, err)
	}

	var answer bool
	confirm := huh.NewConfirm().
		Title(QuestionText(q.Subset)).
		Description(RenderSubset(q)).
		Affirmative("Yes").
		Negative("No").
		Value(&answer)

	in := &eofReader{r: p.in}
	form := huh.NewForm(huh.NewGroup(confirm)).
		WithInput(in).
		WithOutput(p.out).
		WithAccessible(p.accessible)

	err := form.RunWithContext(ctx)
	switch {
	case errors.Is(err, huh.ErrUserAborted):
		return false, fmt.Errorf("step %d: %w", q.Step, engine.ErrFeedbackAborted)
	case ctx.Err() != nil:
		return false, fmt.Errorf("step %d: %w: %w", q.Step, engine.ErrFeedbackAborted, ctx.Err())
	case err != nil:
		return false, fmt.Errorf("step %d: prompt: %w", q.Step, err)
	case in.eof:
		// Accessible mode falls back to the default value at end of input.
		return false, fmt.Errorf("step %d: input closed: %w", q.Step, engine.ErrFeedbackAborted)
	}
	return answer, nil
}

// eofReader remembers whether the underlying reader reached its end.
type eofReader struct {
	r   io.Reader
	eof bool
}

func (e *eofReader) Read(b []byte) (int, error) {
	n, err := e.r.Read(b)
	if errors.Is(err, io.EOF) {
		e.eof = true
	}
	return n, err
}
