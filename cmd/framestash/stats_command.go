package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framestash/internal/queue"
	"framestash/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded encode and decode throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if reset {
					removed, err := store.ClearSamples(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d sample(s)\n", removed)
					return nil
				}

				summaries, err := stats.NewRecorder(store, nil).Summaries(cmd.Context())
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No statistics recorded yet")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]column{
						{Header: "Direction"},
						{Header: "Files", Right: true},
						{Header: "Total", Right: true},
						{Header: "Average speed", Right: true},
					},
					buildStatsRows(summaries),
				))
				fmt.Fprintln(out)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Delete every recorded sample")
	return cmd
}

func buildStatsRows(summaries []stats.Summary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			titleLabel(s.Direction),
			strconv.Itoa(s.Count),
			stats.FormatBytes(s.TotalBytes),
			stats.FormatSpeed(s.AverageBytesPerSecond),
		})
	}
	return rows
}
