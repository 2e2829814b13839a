package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/isolate/internal/ir"
)

// replayFeedback answers questions from a journal before falling back to a
// live channel.
//
// Because the split is deterministic, a resumed session over the same
// candidate order asks the same questions in the same order. A journaled
// answer is only reused when both the step index and the first half match;
// the first mismatch drops the rest of the journal.
type replayFeedback struct {
	recorded []ir.Step
	live     Feedback
}

func newReplayFeedback(recorded []ir.Step, live Feedback) *replayFeedback {
	return &replayFeedback{recorded: recorded, live: live}
}

func (r *replayFeedback) Ask(ctx context.Context, q Question) (bool, error) {
	if len(r.recorded) > 0 {
		next := r.recorded[0]
		if next.Index == q.Step && slices.Equal(next.FirstHalf, q.Subset.IDs()) {
			r.recorded = r.recorded[1:]
			slog.Debug("replaying journaled answer", "step", q.Step, "answer", next.Answer)
			return next.Answer, nil
		}
		slog.Info("journal diverged from current candidates, asking live", "step", q.Step)
		r.recorded = nil
	}
	return r.live.Ask(ctx, q)
}

// journalRecorder binds a Journal to one session.
type journalRecorder struct {
	journal   Journal
	sessionID string
}

func (j journalRecorder) RecordStep(ctx context.Context, step ir.Step) error {
	return j.journal.RecordStep(ctx, j.sessionID, step)
}
