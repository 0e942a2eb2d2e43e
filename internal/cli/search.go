package cli

import (
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/womenconnect/platform/internal/adapters/seed"
	"github.com/womenconnect/platform/internal/domain/calendar"
	"github.com/womenconnect/platform/internal/domain/model"
	"github.com/womenconnect/platform/internal/domain/search"
)

const dateDisplay = "02 Jan 2006 15:04"

func newSearchCommand() *cobra.Command {
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "search <seed-file> [query...]",
		Short: "Filter the events of a seed file by a free-text query",
		Long: `Every query word must appear, case-insensitively, somewhere in the
event's title, category, type, location or description. Without a query
every event is listed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := seed.LoadFile(args[0], time.Local)
			if err != nil {
				return err
			}
			if upcoming {
				events = calendar.Upcoming(events, time.Now())
			} else {
				calendar.SortByDate(events)
			}
			matches := search.Filter(events, strings.Join(args[1:], " "))
			printEvents(cmd, matches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only list events that have not started yet")
	return cmd
}

func printEvents(cmd *cobra.Command, events []model.Event) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	printf(tw, "DATE\tTYPE\tCATEGORY\tTITLE\tLOCATION\n")
	for _, e := range events {
		printf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Date.Format(dateDisplay), e.Type, e.Category, e.Title, e.Location)
	}
	_ = tw.Flush()
	printf(cmd.ErrOrStderr(), "%d event(s)\n", len(events))
}
