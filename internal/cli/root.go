// Package cli implements wcctl, the offline companion to the server: it
// runs the search core against seed files, generates sample catalogues
// and imports them into the configured store.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand returns the wcctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wcctl",
		Short:         "WomenConnect admin tool",
		SilenceUsage:  true, // don't print usage on operational errors
		SilenceErrors: true,
		Long: `wcctl works with event seed files (.yaml, .yml or .json): search and
inspect them with the same matcher the server uses, generate sample
catalogues, and import them into the configured store.`,
	}
	root.AddCommand(
		newSearchCommand(),
		newKeywordsCommand(),
		newGenerateCommand(),
		newImportCommand(),
	)
	return root
}

// Execute runs wcctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
