package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/command"
	"github.com/cairn-dev/cairn/internal/graph"
)

var errAuthorRequired = errors.New("author identity required (--author or CAIRN_AUTHOR)")

// formatter builds the output formatter for a command invocation.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

// kindArg converts a --kind flag value; empty means no filter.
func kindArg(s string) graph.Kind {
	return graph.Kind(s)
}

// commandErr maps command-layer failures to exit codes: validation and
// not-found reject just that one command.
func commandErr(err error) error {
	if command.IsValidation(err) || command.IsNotFound(err) {
		return WrapExitError(ExitFailure, "command rejected", err)
	}
	return WrapExitError(ExitCommandError, "command failed", err)
}
