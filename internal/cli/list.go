package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/ir"
)

// ListEntry is one installed add-on.
type ListEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
	Candidate   bool   `json:"candidate"`
	Whitelisted bool   `json:"whitelisted,omitempty"`
}

// ListResult is the list command's output.
type ListResult struct {
	Items []ListEntry `json:"items"`
}

func (r ListResult) String() string {
	if len(r.Items) == 0 {
		return "No add-ons installed."
	}
	width := 0
	for _, e := range r.Items {
		width = max(width, len(e.ID))
	}
	var b strings.Builder
	for i, e := range r.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		status := "off"
		if e.Active {
			status = "on "
		}
		fmt.Fprintf(&b, "%s  %-*s  %s", status, width, e.ID, e.Name)
		var tags []string
		if !e.Candidate {
			tags = append(tags, e.Kind)
		}
		if e.Whitelisted {
			tags = append(tags, "always on")
		}
		if len(tags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
		}
	}
	return b.String()
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed add-ons",
		Long: `List the add-ons a search would consider, with their current status.
With --all, the tool's own entry and other kinds are listed too.

Example:
  isolate list --all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include non-candidate entries")
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command, all bool) error {
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
	candidates, err := reg.ListCandidates(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list add-ons", err)
	}
	items := candidates
	if all {
		if items, err = reg.All(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to list add-ons", err)
		}
	}
	whitelist, err := st.Whitelist(ctx)
	if err != nil {
		return fmt.Errorf("failed to read whitelist: %w", err)
	}

	result := ListResult{Items: make([]ListEntry, len(items))}
	for i, item := range items {
		result.Items[i] = listEntry(item, candidates, whitelist)
	}
	return out.Success(result)
}

func listEntry(item ir.Item, candidates ir.ItemSet, whitelist []string) ListEntry {
	_, candidate := candidates.Lookup(item.ID)
	return ListEntry{
		ID:          item.ID,
		Name:        item.Name,
		Kind:        item.Kind,
		Active:      item.Active,
		Candidate:   candidate,
		Whitelisted: slices.Contains(whitelist, item.ID),
	}
}
