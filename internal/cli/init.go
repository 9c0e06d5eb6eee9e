package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a cairn workspace in the current directory",
		Long: `Create a cairn workspace: a .cairn/ directory holding the author logs,
the snapshot database, and config.yaml.

Example:
  cairn init --author alice`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootOpts.Dir
			if root == "" {
				var err error
				if root, err = os.Getwd(); err != nil {
					return WrapExitError(ExitCommandError, "init", err)
				}
			}

			author := rootOpts.Author
			if author == "" {
				author = os.Getenv("CAIRN_AUTHOR")
			}
			if author == "" {
				return WrapExitError(ExitCommandError, "init", errAuthorRequired)
			}

			ws, err := config.Init(root, author)
			if err != nil {
				return WrapExitError(ExitCommandError, "init", err)
			}

			f := formatter(rootOpts, cmd)
			if done, err := f.JSON(map[string]string{"workspace": ws.Dir(), "author": author}); done {
				return err
			}
			f.Printf("Initialized workspace %s for author %s\n", ws.Dir(), author)
			return nil
		},
	}
	return cmd
}
