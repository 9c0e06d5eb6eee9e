package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/query"
)

// PulseOptions holds flags for the pulse command.
type PulseOptions struct {
	*RootOptions
	Summary bool
}

// NewPulseCommand creates the pulse command.
func NewPulseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PulseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Show loose ends: orphan nodes and uncovered goals",
		Long: `Pulse reports where the decision story is incomplete: nodes with no
outgoing edges (orphans) and active goals with no reachable decision
(coverage gaps).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}

			f := formatter(opts.RootOptions, cmd)
			if opts.Summary {
				summary := query.Summarize(s.res.Graph)
				if done, err := f.JSON(summary); done {
					return err
				}
				f.Printf("nodes: %d  edges: %d  pending: %d\n", summary.Nodes, summary.Edges, summary.PendingEdges)
				f.Printf("orphans: %d  gaps: %d  covered: %d\n", summary.Orphans, summary.Gaps, summary.Covered)
				return nil
			}

			report := query.Pulse(s.res.Graph)
			if done, err := f.JSON(report); done {
				return err
			}
			if len(report.Gaps) > 0 {
				f.Printf("Coverage gaps (active goals with no decision):\n")
				for _, n := range report.Gaps {
					f.Printf("  %4d  %s\n", n.LocalID, n.Title)
				}
			}
			if len(report.Orphans) > 0 {
				f.Printf("Orphans (no outgoing edges):\n")
				for _, n := range report.Orphans {
					f.Printf("  %4d  %-12s %s\n", n.LocalID, n.Kind, n.Title)
				}
			}
			if len(report.Gaps) == 0 && len(report.Orphans) == 0 {
				f.Printf("No loose ends.\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print counters only")

	return cmd
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:           "timeline",
		Short:         "List nodes in chronological order, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			list := query.Timeline(s.res.Graph, kindArg(kind))

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(list); done {
				return err
			}
			for _, n := range list {
				f.Printf("%s  %-12s %-10s %s\n",
					n.CreatedAt.Format("2006-01-02 15:04"), n.Kind, n.Author, n.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind")
	return cmd
}

// NewPivotsCommand creates the pivots command.
func NewPivotsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pivots",
		Short:         "List pivot chains: origin, revisit, and replacement",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			chains := query.PivotChains(s.res.Graph)

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(chains); done {
				return err
			}
			for _, chain := range chains {
				origin := "(unknown)"
				if chain.Origin != nil {
					origin = chain.Origin.Title
				}
				f.Printf("%s\n", chain.Revisit.Title)
				f.Printf("  from: %s\n", origin)
				for _, n := range chain.Forward {
					f.Printf("  -> %s (%s)\n", n.Title, n.Kind)
				}
			}
			if len(chains) == 0 {
				f.Printf("No pivots recorded.\n")
			}
			return nil
		},
	}
	return cmd
}
