package cli

import (
	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/command"
)

// LinkOptions holds flags for the link command.
type LinkOptions struct {
	*RootOptions
	Type      string
	Rationale string
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "link <from> <to>",
		Short: "Link two nodes by change ID",
		Long: `Create a directed edge between two nodes. The edge may reference a node
not yet known locally; it stays pending until the target's creation record
arrives through log sync.

Example:
  cairn link 4f1c... 9a2e... --type possible_approach`,
		Args:          cobra.ExactArgs(2),
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

			rec, err := c.Link(command.LinkParams{
				From:      args[0],
				To:        args[1],
				Type:      opts.Type,
				Rationale: opts.Rationale,
			})
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(rec); err != nil {
				return err
			}

			f := formatter(opts.RootOptions, cmd)
			if done, err := f.JSON(map[string]string{"from": args[0], "to": args[1], "edge_type": opts.Type}); done {
				return err
			}
			f.Printf("Linked %s -> %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "leads_to", "edge type (leads_to, chosen, rejected, possible_approach, or free-form)")
	cmd.Flags().StringVar(&opts.Rationale, "rationale", "", "free-text rationale for the relation")

	return cmd
}
