package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/command"
)

// PivotOptions holds flags for the pivot command.
type PivotOptions struct {
	*RootOptions
	Observation string
	Approach    string
	Kind        string
}

// NewPivotCommand creates the pivot command.
func NewPivotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PivotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pivot <from-id>",
		Short: "Record that an approach was reconsidered and replaced",
		Long: `Pivot away from a node: record an observation, a revisit marker, and the
new approach, link them from the old node, and mark it superseded.

All records are written in one burst with a shared transaction marker, so
any replayer applies the pivot completely or not at all.

Example:
  cairn pivot 4f1c... --observation "p99 latency regressed" --approach "Use write-through cache"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			c, err := s.commander()
			if err != nil {
				return err
			}

			recs, err := c.Pivot(command.PivotParams{
				From:        args[0],
				Observation: opts.Observation,
				Approach:    opts.Approach,
				Kind:        opts.Kind,
			})
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(recs...); err != nil {
				return err
			}

			f := formatter(opts.RootOptions, cmd)
			if done, err := f.JSON(map[string]any{"from": args[0], "records": len(recs)}); done {
				return err
			}
			f.Printf("Pivoted away from %s (%d records)\n", args[0], len(recs))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Observation, "observation", "", "what was observed that triggered the pivot")
	cmd.Flags().StringVar(&opts.Approach, "approach", "", "title of the new approach")
	cmd.Flags().StringVar(&opts.Kind, "kind", "decision", "kind of the new-approach node (decision|option)")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagRequired("approach")

	return cmd
}

// SupersedeOptions holds flags for the supersede command.
type SupersedeOptions struct {
	*RootOptions
	Cascade bool
}

// NewSupersedeCommand creates the supersede command.
func NewSupersedeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SupersedeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "supersede <change-id>",
		Short: "Mark a node (and optionally everything downstream) superseded",
		Long: `Mark a node superseded. With --cascade, every node reachable through
outgoing edges of the currently materialized graph is marked too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			c, err := s.commander()
			if err != nil {
				return err
			}

			recs, err := c.Supersede(args[0], opts.Cascade)
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(recs...); err != nil {
				return err
			}

			f := formatter(opts.RootOptions, cmd)
			if done, err := f.JSON(map[string]any{"change_id": args[0], "records": len(recs)}); done {
				return err
			}
			f.Printf("Superseded %d node(s)\n", len(recs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Cascade, "cascade", false, "also supersede every reachable node")

	return cmd
}
