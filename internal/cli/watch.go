package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Restore add-ons when the search lock file disappears",
		Long: `Wait until the lock file of a running search is removed, then restore
any snapshot that search left behind.

Use this from a supervisor to make sure add-ons come back even when the
search process is killed. If no lock file exists, restoring happens
immediately.

Example:
  isolate watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}
	return cmd
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
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

	var result RestoreResult
	opts.logger().Info("watching lock file", "path", opts.Config.LockFile)
	err = watch.LockFile(ctx, opts.Config.LockFile, func(ctx context.Context) error {
		report, pending, err := engine.RestorePending(ctx, reg, st)
		result = RestoreResult{Pending: pending, Report: report}
		return err
	})
	if errors.Is(err, context.Canceled) {
		opts.logger().Info("watch stopped")
		return nil
	}
	if err != nil {
		return WrapExitError(ExitFailure, "watch failed", err)
	}

	if !result.Report.OK() {
		return out.Fail(ExitFailure, "E_RESTORE_INCOMPLETE", "some add-ons could not be restored", result, result.Report.Err())
	}
	return out.Success(result)
}
