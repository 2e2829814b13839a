package feedback

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/roach88/isolate/internal/engine"
)

// Line asks on a plain writer and reads y/n answers line by line. It is
// the channel for pipes and dumb terminals.
//
// Lines are read on a background goroutine so a cancelled ctx ends Ask
// while a read is still blocked. That goroutine lives until the input
// ends; a line read after a cancelled Ask is kept for the next one.
type Line struct {
	in  io.Reader
	out io.Writer

	once    sync.Once
	lines   chan lineResult
	readErr error
}

type lineResult struct {
	text string
	err  error
}

// NewLine creates a Line channel.
func NewLine(in io.Reader, out io.Writer) *Line {
	return &Line{in: in, out: out}
}

func (l *Line) start() {
	l.lines = make(chan lineResult, 1)
	go func() {
		reader := bufio.NewReader(l.in)
		for {
			text, err := reader.ReadString('\n')
			l.lines <- lineResult{text: text, err: err}
			if err != nil {
				return
			}
		}
	}()
}

// Ask implements engine.Feedback. End of input dismisses the question.
// Unrecognized answers are asked again.
func (l *Line) Ask(ctx context.Context, q engine.Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.once.Do(l.start)

	fmt.Fprintln(l.out, QuestionText(q.Subset))
	fmt.Fprintln(l.out, RenderSubset(q))

	for {
		fmt.Fprint(l.out, "[y/n]: ")

		input, err := l.readLine(ctx)
		if cerr := ctx.Err(); cerr != nil && errors.Is(err, cerr) {
			fmt.Fprintln(l.out)
			return false, cerr
		}
		if err != nil && !(errors.Is(err, io.EOF) && input != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(l.out)
				return false, fmt.Errorf("step %d: input closed: %w", q.Step, engine.ErrFeedbackAborted)
			}
			return false, fmt.Errorf("step %d: read answer: %w", q.Step, err)
		}

		if answer, ok := ParseAnswer(input); ok {
			return answer, nil
		}
		fmt.Fprintf(l.out, "Please answer y or n.\n")
	}
}

// readLine returns the next line, or the read error once input has ended.
func (l *Line) readLine(ctx context.Context) (string, error) {
	if l.readErr != nil {
		return "", l.readErr
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-l.lines:
		if res.err != nil {
			l.readErr = res.err
		}
		return res.text, res.err
	}
}

// ParseAnswer reads a yes/no token. The bool reports whether it was
// recognized.
func ParseAnswer(s string) (answer, ok bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "y", "yes", "true", "1":
		return true, true
	case "n", "no", "false", "0":
		return false, true
	}
	return false, false
}
