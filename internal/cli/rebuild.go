package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/snapshot"
)

// RebuildOptions holds flags for the rebuild command.
type RebuildOptions struct {
	*RootOptions
	DryRun bool
}

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RebuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Replay all author logs into the materialized graph",
		Long: `Replay the checkpoint snapshot plus every author log into a fresh
materialized graph and report what was applied. Without --dry-run the
result also refreshes the snapshot's graph tables (checkpoint cursors are
only advanced by 'cairn checkpoint').

The new graph is produced in a separate workspace and swapped in on full
success, so an aborted rebuild leaves the previous state untouched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}

			if !opts.DryRun {
				// Keep the checkpoint cursors, refresh the graph tables.
				stored, err := storedCursors(cmd, s)
				if err != nil {
					return err
				}
				if err := snapshot.Replace(cmd.Context(), s.ws.SnapshotPath(), s.res.Graph, stored); err != nil {
					return WrapExitError(ExitCommandError, "write snapshot", err)
				}
			}

			f := formatter(opts.RootOptions, cmd)
			data := map[string]any{
				"applied":       s.res.Applied,
				"deduplicated":  s.res.Deduplicated,
				"withheld":      s.res.Withheld,
				"nodes":         s.res.Graph.Len(),
				"edges":         len(s.res.Graph.Edges()),
				"pending_edges": len(s.res.Graph.Pending()),
				"diagnostics":   s.res.Diags,
				"dry_run":       opts.DryRun,
			}
			if done, err := f.JSON(data); done {
				return err
			}
			f.Printf("Applied %d record(s), %d duplicate(s), %d withheld\n",
				s.res.Applied, s.res.Deduplicated, s.res.Withheld)
			f.Printf("Graph: %d node(s), %d edge(s), %d pending edge(s)\n",
				s.res.Graph.Len(), len(s.res.Graph.Edges()), len(s.res.Graph.Pending()))
			for _, d := range s.res.Diags {
				f.Printf("  warning: %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report without touching the snapshot")

	return cmd
}

// storedCursors returns the cursor positions currently persisted in the
// snapshot, empty when none exists yet.
func storedCursors(cmd *cobra.Command, s *session) (map[string]int64, error) {
	if !snapshot.Exists(s.ws.SnapshotPath()) {
		return map[string]int64{}, nil
	}
	store, err := snapshot.Open(s.ws.SnapshotPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open snapshot", err)
	}
	defer store.Close()
	cursors, err := store.Cursors(cmd.Context())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read snapshot cursors", err)
	}
	return cursors, nil
}
