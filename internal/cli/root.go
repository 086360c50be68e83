// Package cli wires the codesage command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// NewRootCmd builds the command tree. Running the root without a subcommand
// starts the API server.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codesage",
		Short:         "CodeSage API server",
		Long:          "CodeSage serves authentication and AI code review over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := newServeCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSecretsCmd())
	return root
}

// Execute runs the command tree and returns a process exit code.
func Execute(ctx context.Context, args []string, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "codesage: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
