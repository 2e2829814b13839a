package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/isolate/internal/ir"
)

// Result is the outcome of a bisection search.
type Result struct {
	// Culprit is the item left after the last split, or nil when the input
	// was empty.
	Culprit *ir.Item

	// Steps lists every answered question in order.
	Steps []ir.Step
}

// Questions returns how many questions the search asked.
func (r Result) Questions() int {
	return len(r.Steps)
}

// Searcher runs the bisection search over a Registry and a Feedback channel.
//
// A Searcher holds no per-search state and may run several searches one
// after another, but never concurrently against the same registry.
type Searcher struct {
	registry Registry
	feedback Feedback
	recorder StepRecorder
	logger   *slog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithStepRecorder journals every answered step.
func WithStepRecorder(r StepRecorder) SearcherOption {
	return func(s *Searcher) {
		s.recorder = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSearcher creates a Searcher.
func NewSearcher(reg Registry, fb Feedback, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		registry: reg,
		feedback: fb,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run searches items for the single culprit.
//
// Sets of zero or one item return immediately without a question. Larger
// sets take at most ceil(log2 n) questions, one fewer when a "yes" lands
// on the smaller first half of an odd split. Items are left in whatever
// status the last step set; restoring them is the caller's job.
//
// Registry failures return a SearchError with ErrCodeRegistryUnavailable,
// feedback failures one with ErrCodeFeedbackAborted. The returned Result
// still carries the steps answered before the failure.
func (s *Searcher) Run(ctx context.Context, items ir.ItemSet) (Result, error) {
	var result Result
	candidates := items

	for step := 0; len(candidates) > 1; step++ {
		first, second := candidates.Split()
		s.logger.Debug("search step",
			"step", step,
			"candidates", len(candidates),
			"first_half", first.IDs(),
			"second_half", second.IDs())

		if err := s.setAll(ctx, first, true, step); err != nil {
			return result, err
		}
		if err := s.setAll(ctx, second, false, step); err != nil {
			return result, err
		}

		answer, err := s.feedback.Ask(ctx, Question{
			Step:      step,
			Subset:    first,
			Remaining: len(candidates),
		})
		if err != nil {
			return result, abortError(step, err)
		}

		if err := s.setAll(ctx, first, false, step); err != nil {
			return result, err
		}

		rec := ir.Step{
			Index:      step,
			FirstHalf:  first.IDs(),
			SecondHalf: second.IDs(),
			Answer:     answer,
		}
		result.Steps = append(result.Steps, rec)
		if s.recorder != nil {
			if err := s.recorder.RecordStep(ctx, rec); err != nil {
				return result, fmt.Errorf("record step %d: %w", step, err)
			}
		}

		s.logger.Debug("search answer", "step", step, "problem_persists", answer)
		if answer {
			candidates = first
		} else {
			candidates = second
		}
	}

	if len(candidates) == 1 {
		culprit := candidates[0]
		result.Culprit = &culprit
		s.logger.Info("search finished", "culprit", culprit.ID, "questions", result.Questions())
	} else {
		s.logger.Info("search finished without candidates")
	}
	return result, nil
}

// setAll sets every item of set to active, stopping at the first failure.
func (s *Searcher) setAll(ctx context.Context, set ir.ItemSet, active bool, step int) error {
	for _, item := range set {
		if err := s.registry.SetActive(ctx, item.ID, active); err != nil {
			op := "disable item"
			if active {
				op = "enable item"
			}
			return registryError(op, item.ID, step, err)
		}
	}
	return nil
}
