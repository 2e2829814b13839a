package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/engine"
)

// RestoreResult is the restore command's output.
type RestoreResult struct {
	Pending bool                 `json:"pending"`
	Report  engine.RestoreReport `json:"report"`
}

func (r RestoreResult) String() string {
	if !r.Pending {
		return "Nothing to restore."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Restored session %s: %d item(s)", r.Report.SessionID, len(r.Report.Restored))
	if len(r.Report.Untracked) > 0 {
		fmt.Fprintf(&b, "\n  installed after the search started, left as is: %s", strings.Join(r.Report.Untracked, ", "))
	}
	for _, f := range r.Report.Failures {
		fmt.Fprintf(&b, "\n  not restored: %s", f.String())
	}
	return b.String()
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore add-ons left over from an interrupted search",
		Long: `Put every add-on back into the status it had when the pending search
started, then forget the saved snapshot.

Add-ons that cannot be set are reported and skipped; the exit code is 1
if any were skipped. With nothing pending this does nothing.

Example:
  isolate restore`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(rootOpts, cmd)
		},
	}
	return cmd
}

func runRestore(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	reg, err := opts.openRegistry()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	report, pending, err := engine.RestorePending(ctx, reg, st)
	if err != nil {
		return WrapExitError(ExitFailure, "restore failed", err)
	}

	result := RestoreResult{Pending: pending, Report: report}
	if !report.OK() {
		return out.Fail(ExitFailure, "E_RESTORE_INCOMPLETE", "some add-ons could not be restored", result, report.Err())
	}
	return out.Success(result)
}
