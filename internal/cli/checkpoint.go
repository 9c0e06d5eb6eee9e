package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/snapshot"
	"github.com/cairn-dev/cairn/internal/wal"
)

// CheckpointOptions holds flags for the checkpoint command.
type CheckpointOptions struct {
	*RootOptions
	Clear bool
}

// NewCheckpointCommand creates the checkpoint command.
func NewCheckpointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckpointOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Compact author logs into a snapshot",
		Long: `Materialize the current graph into the snapshot database and advance
every author's checkpoint cursor to fully consumed. With --clear, also
truncate the consumed prefix of each author log.

The snapshot is durably written before any log is truncated, never the
reverse: a crash between the two steps loses no history.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}

			// Snapshot write first. Replace is atomic (temp file +
			// rename), so a crash here leaves the old snapshot valid.
			if err := snapshot.Replace(cmd.Context(), s.ws.SnapshotPath(), s.res.Graph, s.res.Cursors); err != nil {
				return WrapExitError(ExitCommandError, "write snapshot", err)
			}

			truncated := 0
			if opts.Clear {
				for author, seq := range s.res.Cursors {
					if err := wal.Truncate(s.ws.LogsDir(), author, seq); err != nil {
						return WrapExitError(ExitCommandError, "truncate log", err)
					}
					truncated++
				}
			}

			f := formatter(opts.RootOptions, cmd)
			data := map[string]any{
				"nodes":          s.res.Graph.Len(),
				"edges":          len(s.res.Graph.Edges()),
				"pending_edges":  len(s.res.Graph.Pending()),
				"cursors":        s.res.Cursors,
				"logs_truncated": truncated,
			}
			if done, err := f.JSON(data); done {
				return err
			}
			f.Printf("Checkpointed %d node(s), %d edge(s)\n", s.res.Graph.Len(), len(s.res.Graph.Edges()))
			if opts.Clear {
				f.Printf("Truncated %d author log(s)\n", truncated)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "truncate consumed log prefixes after the snapshot is durable")

	return cmd
}
