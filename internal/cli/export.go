package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/query"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the flattened {nodes, edges} document",
		Long: `Export the materialized graph as a flattened JSON document for static
or offline rendering. The export is a read-only denormalized view,
regenerated on demand, never a source of truth.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}

			doc := query.Export(s.res.Graph)
			data, err := query.MarshalDocument(doc)
			if err != nil {
				return WrapExitError(ExitCommandError, "export", err)
			}

			if opts.Out != "" {
				if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
					return WrapExitError(ExitCommandError, "write export", err)
				}
				formatter(opts.RootOptions, cmd).Printf("Exported %d node(s), %d edge(s) to %s\n",
					len(doc.Nodes), len(doc.Edges), opts.Out)
				return nil
			}

			cmd.OutOrStdout().Write(data)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "output file (default: stdout)")

	return cmd
}
