package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/womenconnect/platform/internal/adapters/seed"
	"github.com/womenconnect/platform/internal/domain/search"
)

func newKeywordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keywords <seed-file>",
		Short: "Print the keyword set of each event in a seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := seed.LoadFile(args[0], time.Local)
			if err != nil {
				return err
			}
			for _, e := range events {
				kw := search.ExtractKeywords(e.SearchRecord()).Sorted()
				printf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.ID, e.Title, strings.Join(kw, " "))
			}
			return nil
		},
	}
}
