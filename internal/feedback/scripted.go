package feedback

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/isolate/internal/engine"
)

// Scripted answers from a fixed list and aborts once the list runs out.
type Scripted struct {
	mu      sync.Mutex
	answers []bool
	next    int
}

// NewScripted creates a Scripted channel.
func NewScripted(answers ...bool) *Scripted {
	return &Scripted{answers: answers}
}

// ParseScript parses a comma separated answer list such as "y,n,y".
func ParseScript(s string) (*Scripted, error) {
	var answers []bool
	if strings.TrimSpace(s) != "" {
		for i, tok := range strings.Split(s, ",") {
			answer, ok := ParseAnswer(tok)
			if !ok {
				return nil, fmt.Errorf("answer %d: %q is not y or n", i+1, strings.TrimSpace(tok))
			}
			answers = append(answers, answer)
		}
	}
	return NewScripted(answers...), nil
}

// Ask implements engine.Feedback.
func (s *Scripted) Ask(ctx context.Context, q engine.Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.answers) {
		return false, fmt.Errorf("step %d: no scripted answer left: %w", q.Step, engine.ErrFeedbackAborted)
	}
	answer := s.answers[s.next]
	s.next++
	return answer, nil
}

// Remaining returns how many answers have not been used.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers) - s.next
}
