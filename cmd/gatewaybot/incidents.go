package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/journal"
)

func newIncidentsCommand() *cobra.Command {
	var (
		listener string
		limit    int
		purge    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "incidents",
		Short: "List listener timeouts and failures recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.Journal.Path == "" {
				return fmt.Errorf("incidents: a SQLite journal is required (--journal)")
			}

			store, err := journal.NewSQLiteStore(settings.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if purge > 0 {
				n, err := store.Purge(time.Now().Add(-purge))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d incidents\n", n)
			}

			var incidents []journal.Incident
			if listener != "" {
				incidents, err = store.ListByListener(listener, limit)
			} else {
				incidents, err = store.List(limit)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tKIND\tLISTENER\tEVENT\tELAPSED\tERROR")
			for _, inc := range incidents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					inc.OccurredAt.Format(time.RFC3339), inc.Kind, inc.Listener,
					inc.EventType, inc.Elapsed.Round(time.Millisecond), inc.Error)
			}
			return w.Flush()
		},
	}
	addSettingsFlags(cmd)
	cmd.Flags().StringVar(&listener, "listener", "", "only show incidents for this listener")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum incidents to show (0 = all)")
	cmd.Flags().DurationVar(&purge, "purge-older-than", 0, "delete incidents older than this first")
	return cmd
}
