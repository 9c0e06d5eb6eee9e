package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/query"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Kind   string
	Status string
}

// NewListCommand creates the list command with its nodes/edges subcommands.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes or edges of the materialized graph",
	}

	nodes := &cobra.Command{
		Use:           "nodes",
		Short:         "List live nodes in replay order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			list := query.Nodes(s.res.Graph, query.NodeFilter{
				Kind:   graph.Kind(opts.Kind),
				Status: graph.Status(opts.Status),
			})

			f := formatter(opts.RootOptions, cmd)
			if done, err := f.JSON(list); done {
				return err
			}
			for _, n := range list {
				f.Printf("%4d  %-12s %-11s %-10s %s  %s\n",
					n.LocalID, n.Kind, n.Status, n.Author, n.CreatedAt.Format("2006-01-02"), n.Title)
			}
			f.VerboseLog("%d node(s)", len(list))
			return nil
		},
	}
	nodes.Flags().StringVar(&opts.Kind, "kind", "", "filter by kind")
	nodes.Flags().StringVar(&opts.Status, "status", "", "filter by status")

	edges := &cobra.Command{
		Use:           "edges",
		Short:         "List live edges in replay order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			list := query.Edges(s.res.Graph)

			f := formatter(opts.RootOptions, cmd)
			if done, err := f.JSON(list); done {
				return err
			}
			for _, e := range list {
				f.Printf("%s -> %s  [%s]  %s\n", e.From, e.To, e.Type, e.Rationale)
			}
			if pending := s.res.Graph.Pending(); len(pending) > 0 {
				f.VerboseLog("%d pending edge(s) awaiting endpoints", len(pending))
			}
			return nil
		},
	}

	cmd.AddCommand(nodes)
	cmd.AddCommand(edges)
	return cmd
}
