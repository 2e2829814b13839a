package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/store"
)

// TraceResult holds a session and its answered steps.
type TraceResult struct {
	Session ir.Session `json:"session"`
	Steps   []ir.Step  `json:"steps"`
}

func (r TraceResult) String() string {
	var b strings.Builder
	s := r.Session
	fmt.Fprintf(&b, "Session %s (%s)\n", s.ID, s.Status)
	fmt.Fprintf(&b, "  started:  %s\n", s.StartedAt.Format(time.RFC3339))
	if s.FinishedAt != nil {
		fmt.Fprintf(&b, "  finished: %s\n", s.FinishedAt.Format(time.RFC3339))
	}
	if s.RestoredAt != nil {
		fmt.Fprintf(&b, "  restored: %s\n", s.RestoredAt.Format(time.RFC3339))
	} else {
		b.WriteString("  restored: no\n")
	}
	if s.CulpritID != "" {
		fmt.Fprintf(&b, "  culprit:  %s\n", s.CulpritID)
	}

	if len(r.Steps) == 0 {
		b.WriteString("No answered steps.")
		return b.String()
	}
	b.WriteString("Steps:")
	for _, step := range r.Steps {
		fmt.Fprintf(&b, "\n  [%d] enabled %s (held back %s): %s",
			step.Index, strings.Join(step.FirstHalf, ", "), strings.Join(step.SecondHalf, ", "), answerWord(step.Answer))
	}
	return b.String()
}

func answerWord(answer bool) string {
	if answer {
		return "yes"
	}
	return "no"
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <session-id>",
		Short: "Show the answered steps of a search",
		Long: `Show a recorded search: its status, culprit and every answered step.

Example:
  isolate trace 0192f3c4-...
  isolate trace 0192f3c4-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runTrace(opts *RootOptions, cmd *cobra.Command, sessionID string) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	session, err := st.Session(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return out.Fail(ExitCommandError, "E_NOT_FOUND", fmt.Sprintf("no session %q", sessionID), nil, err)
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	steps, err := st.Steps(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read steps: %w", err)
	}
	return out.Success(TraceResult{Session: session, Steps: steps})
}
