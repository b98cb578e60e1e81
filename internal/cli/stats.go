package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/confluence-assistant/internal/observability"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics from the event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if EventLog == nil {
			fmt.Fprintln(out, "Event log is disabled; no statistics available.")
			return nil
		}

		stats, err := observability.Aggregate(EventLog)
		if err != nil {
			return fmt.Errorf("aggregating events: %w", err)
		}

		fmt.Fprintf(out, "Requests:        %d (%d completed)\n", stats.Requests, stats.Completed)
		fmt.Fprintf(out, "Intent failures: %d\n", stats.IntentFailures)
		fmt.Fprintf(out, "Tool calls:      %d (%d failed)\n", stats.ToolCalls, stats.ToolFailures)
		if avg := stats.AverageDuration(); avg > 0 {
			fmt.Fprintf(out, "Avg duration:    %s\n", avg)
		}

		if len(stats.ToolCounts) > 0 {
			fmt.Fprintln(out, "\nTool usage:")
			names := make([]string, 0, len(stats.ToolCounts))
			for name := range stats.ToolCounts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-35s %d\n", name, stats.ToolCounts[name])
			}
		}

		if ParserStats != nil {
			ps := ParserStats()
			fmt.Fprintf(out, "\nModel:           %s\n", ps.Model)
			fmt.Fprintf(out, "Model API calls: %d\n", ps.APICalls)
		}

		if Transcripts != nil {
			sessions, err := Transcripts.GetRecentSessions(5)
			if err == nil && len(sessions) > 0 {
				fmt.Fprintln(out, "\nRecent chat sessions:")
				for _, s := range sessions {
					fmt.Fprintf(out, "  %s  %s  %d turn(s)\n",
						s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.Turns)
				}
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
