package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/quiet"
)

// WhitelistResult is the whitelist list output.
type WhitelistResult struct {
	Entries []quiet.Entry `json:"entries"`
}

func (r WhitelistResult) String() string {
	if len(r.Entries) == 0 {
		return "Whitelist is empty."
	}
	var b strings.Builder
	b.WriteString("Always on:")
	for _, e := range r.Entries {
		if e.Installed {
			fmt.Fprintf(&b, "\n  %s  %s", e.ID, e.Name)
		} else {
			fmt.Fprintf(&b, "\n  %s  (not installed)", e.ID)
		}
	}
	return b.String()
}

// WhitelistChange is the whitelist add/remove output.
type WhitelistChange struct {
	ID     string `json:"id"`
	Listed bool   `json:"listed"`
}

func (c WhitelistChange) String() string {
	if c.Listed {
		return fmt.Sprintf("%s is always on.", c.ID)
	}
	return fmt.Sprintf("%s removed from the whitelist.", c.ID)
}

// NewWhitelistCommand creates the whitelist command group.
func NewWhitelistCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage add-ons kept on by quiet mode",
		Long: `Whitelisted add-ons stay enabled when quiet mode is turned on.

Adding an add-on also enables it; removing one disables it.

Examples:
  isolate whitelist add adblock
  isolate whitelist remove adblock
  isolate whitelist list`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "add <id>",
		Short:         "Keep an add-on on in quiet mode and enable it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhitelistChange(rootOpts, cmd, args[0], true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "remove <id>",
		Short:         "Take an add-on off the whitelist and disable it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhitelistChange(rootOpts, cmd, args[0], false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "Show the whitelist",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhitelistList(rootOpts, cmd)
		},
	})
	return cmd
}

func runWhitelistChange(opts *RootOptions, cmd *cobra.Command, id string, add bool) error {
	out := opts.formatter(cmd)

	reg, err := opts.openRegistry()
	if err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if add {
		err = quiet.Allow(ctx, reg, st, id)
	} else {
		err = quiet.Disallow(ctx, reg, st, id)
	}
	if errors.Is(err, quiet.ErrNotCandidate) {
		return out.Fail(ExitCommandError, "E_NOT_CANDIDATE", fmt.Sprintf("%s is not an installed add-on", id), nil, err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to update whitelist", err)
	}
	return out.Success(WhitelistChange{ID: id, Listed: add})
}

func runWhitelistList(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	reg, err := opts.openRegistry()
	if err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	entries, err := quiet.List(cmd.Context(), reg, st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list whitelist", err)
	}
	return out.Success(WhitelistResult{Entries: entries})
}
