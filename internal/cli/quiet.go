package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/quiet"
)

// QuietResult is the quiet command's output.
type QuietResult struct {
	quiet.Report
	Remembered []string `json:"remembered,omitempty"`
}

func (r QuietResult) String() string {
	var b strings.Builder
	if r.On {
		b.WriteString("Quiet mode is on.")
	} else {
		b.WriteString("Quiet mode is off.")
	}
	if len(r.Disabled) > 0 {
		fmt.Fprintf(&b, "\n  disabled: %s", strings.Join(r.Disabled, ", "))
	}
	if len(r.Enabled) > 0 {
		fmt.Fprintf(&b, "\n  enabled: %s", strings.Join(r.Enabled, ", "))
	}
	if len(r.Remembered) > 0 {
		fmt.Fprintf(&b, "\n  turning it off enables: %s", strings.Join(r.Remembered, ", "))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "\n  failed: %s", f.String())
	}
	return b.String()
}

// NewQuietCommand creates the quiet command.
func NewQuietCommand(rootOpts *RootOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "quiet",
		Short: "Toggle quiet mode",
		Long: `Quiet mode disables every add-on that is not whitelisted. Turning it off
again enables the add-ons that were on before, if they are still
installed. Quiet mode cannot be toggled while a search is pending.

Examples:
  isolate quiet
  isolate quiet --status`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiet(rootOpts, cmd, statusOnly)
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "show quiet mode without toggling it")
	return cmd
}

func runQuiet(opts *RootOptions, cmd *cobra.Command, statusOnly bool) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	ctx := cmd.Context()

	if statusOnly {
		on, remembered, err := quiet.Status(ctx, st)
		if err != nil {
			return err
		}
		return out.Success(QuietResult{
			Report:     quiet.Report{On: on, Enabled: []string{}, Disabled: []string{}},
			Remembered: remembered,
		})
	}

	reg, err := opts.openRegistry()
	if err != nil {
		return err
	}
	report, err := quiet.Toggle(ctx, reg, st)
	switch {
	case engine.IsPendingError(err):
		return out.Fail(ExitFailure, errorCode(err), err.Error(), nil, err)
	case engine.IsRegistryError(err):
		return out.Fail(ExitCommandError, errorCode(err), err.Error(), nil, err)
	case err != nil:
		return WrapExitError(ExitFailure, "failed to toggle quiet mode", err)
	}

	result := QuietResult{Report: report}
	if len(report.Failures) > 0 {
		return out.Fail(ExitFailure, "E_TOGGLE_INCOMPLETE", "some add-ons could not be changed", result, nil)
	}
	return out.Success(result)
}
