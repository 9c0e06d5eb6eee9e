package cli

import (
	"github.com/spf13/cobra"
)

// NewSetStatusCommand creates the set-status command.
func NewSetStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status <change-id> <status>",
		Short: "Change a node's status",
		Long: `Set a node's status to active, rejected, completed, or superseded.

The target must exist in the local materialized graph; if another author
created it, sync their log first.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			c, err := s.commander()
			if err != nil {
				return err
			}

			rec, err := c.SetStatus(args[0], args[1])
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(rec); err != nil {
				return err
			}

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(map[string]string{"change_id": args[0], "status": args[1]}); done {
				return err
			}
			f.Printf("Status of %s set to %s\n", args[0], args[1])
			return nil
		},
	}
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <change-id>",
		Short: "Tombstone a node",
		Long: `Mark a node inert. The node disappears from query results but its
creation record and change ID remain in history, so the operation is fully
auditable and edges referencing the ID keep resolving.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			c, err := s.commander()
			if err != nil {
				return err
			}

			rec, err := c.Delete(args[0])
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(rec); err != nil {
				return err
			}

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(map[string]string{"change_id": args[0]}); done {
				return err
			}
			f.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
	return cmd
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "unlink <from> <to>",
		Short:         "Tombstone every edge between two nodes",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			c, err := s.commander()
			if err != nil {
				return err
			}

			rec, err := c.Unlink(args[0], args[1])
			if err != nil {
				return commandErr(err)
			}
			if err := s.appendRecords(rec); err != nil {
				return err
			}

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(map[string]string{"from": args[0], "to": args[1]}); done {
				return err
			}
			f.Printf("Unlinked %s -> %s\n", args[0], args[1])
			return nil
		},
	}
	return cmd
}
