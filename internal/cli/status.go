package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/quiet"
	"github.com/roach88/isolate/internal/watch"
)

// PendingInfo describes an unrestored snapshot.
type PendingInfo struct {
	SessionID string `json:"session_id"`
	Active    int    `json:"active"`
	Inactive  int    `json:"inactive"`
	Steps     int    `json:"steps"`
}

// LockInfo describes the lock file of a running search.
type LockInfo struct {
	watch.Lock
	Live bool `json:"live"`
}

// StatusResult is the status command's output.
type StatusResult struct {
	Pending  *PendingInfo `json:"pending,omitempty"`
	Lock     *LockInfo    `json:"lock,omitempty"`
	Quiet    bool         `json:"quiet"`
	Sessions []ir.Session `json:"sessions"`

	hideHistory bool
}

func (r StatusResult) String() string {
	var b strings.Builder
	if r.Pending != nil {
		fmt.Fprintf(&b, "Pending search %s: %d active, %d inactive, %d answered step(s). Run \"isolate restore\" or \"isolate search --resume\".\n",
			r.Pending.SessionID, r.Pending.Active, r.Pending.Inactive, r.Pending.Steps)
	} else {
		b.WriteString("No pending search.\n")
	}
	switch {
	case r.Lock == nil:
	case r.Lock.Live:
		fmt.Fprintf(&b, "Search %s is running (pid %d).\n", r.Lock.SessionID, r.Lock.PID)
	default:
		fmt.Fprintf(&b, "Stale lock file from session %s.\n", r.Lock.SessionID)
	}
	if r.Quiet {
		b.WriteString("Quiet mode is on.\n")
	}
	if r.hideHistory {
		return strings.TrimSuffix(b.String(), "\n")
	}
	if len(r.Sessions) == 0 {
		b.WriteString("No searches recorded.")
		return b.String()
	}
	b.WriteString("Recent searches:")
	for _, s := range r.Sessions {
		fmt.Fprintf(&b, "\n  %s  %s  %-9s", s.StartedAt.Format(time.DateTime), s.ID, s.Status)
		if s.CulpritID != "" {
			fmt.Fprintf(&b, "  culprit=%s", s.CulpritID)
		}
		if s.RestoredAt == nil {
			b.WriteString("  (not restored)")
		}
	}
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pending and recent searches",
		Long: `Show whether a search is waiting to be restored, whether quiet mode is
on, and the most recent searches. The number of searches shown is the
"history" config value; 0 hides the list.

Example:
  isolate status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	result := StatusResult{}

	snap, pending, err := st.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if pending {
		steps, err := st.Steps(ctx, snap.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load journal: %w", err)
		}
		result.Pending = &PendingInfo{
			SessionID: snap.SessionID,
			Active:    len(snap.ActiveIDs()),
			Inactive:  len(snap.InactiveIDs()),
			Steps:     len(steps),
		}
	}

	if lock, held, err := watch.ReadLock(opts.Config.LockFile); err != nil {
		opts.logger().Warn("could not read lock file", "path", opts.Config.LockFile, "error", err)
	} else if held {
		result.Lock = &LockInfo{Lock: lock, Live: lock.Live()}
	}

	if result.Quiet, _, err = quiet.Status(ctx, st); err != nil {
		return err
	}

	result.Sessions = []ir.Session{}
	result.hideHistory = opts.Config.History == 0
	if !result.hideHistory {
		result.Sessions, err = st.Sessions(ctx, opts.Config.History)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
	}
	return out.Success(result)
}
