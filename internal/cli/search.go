package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/feedback"
	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/watch"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Answers string
	Resume  bool
	Prompt  string

	// IDs allows overriding the session ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.SessionIDGenerator
}

// SearchResult is the search command's output.
type SearchResult struct {
	SessionID string               `json:"session_id"`
	Status    ir.SessionStatus     `json:"status"`
	Culprit   *ir.Item             `json:"culprit"`
	Questions int                  `json:"questions"`
	Resumed   bool                 `json:"resumed,omitempty"`
	Restore   engine.RestoreReport `json:"restore"`
}

func (r SearchResult) String() string {
	var b strings.Builder
	if r.Status == ir.SessionCompleted {
		fmt.Fprintln(&b, feedback.RenderResult(r.Culprit))
	} else {
		fmt.Fprintln(&b, "Search aborted.")
	}
	fmt.Fprintf(&b, "session %s: %d question(s)", r.SessionID, r.Questions)
	if r.Resumed {
		b.WriteString(", resumed")
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "restored %d item(s)", len(r.Restore.Restored))
	for _, f := range r.Restore.Failures {
		fmt.Fprintf(&b, "\n  not restored: %s", f.String())
	}
	return b.String()
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the add-on causing a problem",
		Long: `Run an isolation search over the installed add-ons.

The current status of every add-on is saved before anything changes. Each
step enables half of the remaining candidates and asks whether the problem
is still there. When the search ends, by an answer, a dismissed question,
Ctrl-C or removal of the lock file, every add-on is put back.

If an earlier search was interrupted before its add-ons were restored, a
new search is refused. Run "isolate restore" or resume it with --resume;
resuming replays the answers already given.

Examples:
  isolate search
  isolate search --answers y,n,n
  isolate search --resume --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Answers, "answers", "", "comma separated answers (y/n) instead of asking")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "resume an interrupted search")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "question style: auto, prompt or line (overrides config)")

	return cmd
}

func runSearch(opts *SearchOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	fb, err := opts.feedback(cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid feedback options", err)
	}

	reg, err := opts.openRegistry()
	if err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// Removing the lock file from outside ends the search like a
	// dismissed question.
	surface := watch.NewLockSurface(opts.Config.LockFile, func() {
		opts.logger().Info("lock file removed, ending search", "path", opts.Config.LockFile)
		cancel()
	})

	sess := engine.NewSession(engine.SessionConfig{
		Registry: reg,
		Feedback: fb,
		Store:    st,
		IDs:      opts.IDs,
		Surface:  surface,
		Resume:   opts.Resume,
		Logger:   opts.logger(),
	})
	outcome, runErr := sess.Run(ctx)

	if outcome.Resumed {
		out.VerboseLog("resumed session %s", outcome.SessionID)
	}
	for _, step := range outcome.Steps {
		out.VerboseLog("step %d: enabled %s, held back %s: %s", step.Index,
			strings.Join(step.FirstHalf, ", "), strings.Join(step.SecondHalf, ", "), answerWord(step.Answer))
	}

	result := SearchResult{
		SessionID: outcome.SessionID,
		Status:    outcome.Status,
		Culprit:   outcome.Culprit,
		Questions: len(outcome.Steps),
		Resumed:   outcome.Resumed,
		Restore:   outcome.Restore,
	}

	switch {
	case runErr == nil:
		if !outcome.Restore.OK() {
			return out.Fail(ExitFailure, "E_RESTORE_INCOMPLETE", "some add-ons could not be restored", result, outcome.Restore.Err())
		}
		return out.Success(result)
	case engine.IsPendingError(runErr):
		return out.Fail(ExitFailure, errorCode(runErr), runErr.Error(), nil, runErr)
	case engine.IsAbortError(runErr):
		return out.Fail(ExitFailure, string(engine.ErrCodeFeedbackAborted), "search aborted", result, runErr)
	case engine.IsRegistryError(runErr):
		return out.Fail(ExitCommandError, errorCode(runErr), runErr.Error(), nil, runErr)
	default:
		return out.Fail(ExitFailure, errorCode(runErr), runErr.Error(), nil, runErr)
	}
}

// feedback picks the answer source: the --answers script if given, the
// configured prompt style otherwise.
func (o *SearchOptions) feedback(cmd *cobra.Command) (engine.Feedback, error) {
	if cmd.Flags().Changed("answers") {
		return feedback.ParseScript(o.Answers)
	}

	name := o.Config.Prompt
	if o.Prompt != "" {
		name = o.Prompt
	}
	mode, err := feedback.ParseMode(name)
	if err != nil {
		return nil, err
	}

	in := cmd.InOrStdin()
	// Questions go to stderr in JSON mode so stdout stays one document.
	var w io.Writer = cmd.OutOrStdout()
	if o.Format == "json" {
		w = cmd.ErrOrStderr()
	}
	if f, ok := in.(*os.File); ok {
		return feedback.New(mode, f, w), nil
	}
	return feedback.NewLine(in, w), nil
}
