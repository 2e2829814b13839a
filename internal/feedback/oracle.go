package feedback

import (
	"context"
	"sync"

	"github.com/roach88/isolate/internal/engine"
)

// Oracle answers as a user would if Culprit were the faulty item: the
// problem persists exactly when the culprit is among the enabled subset.
type Oracle struct {
	Culprit string

	mu    sync.Mutex
	asked []engine.Question
}

// NewOracle creates an Oracle for culprit.
func NewOracle(culprit string) *Oracle {
	return &Oracle{Culprit: culprit}
}

// Ask implements engine.Feedback.
func (o *Oracle) Ask(ctx context.Context, q engine.Question) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	o.mu.Lock()
	o.asked = append(o.asked, q)
	o.mu.Unlock()

	_, found := q.Subset.Lookup(o.Culprit)
	return found, nil
}

// Asked returns every question received, in order.
func (o *Oracle) Asked() []engine.Question {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]engine.Question, len(o.asked))
	copy(out, o.asked)
	return out
}
