package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyFormat  string
	historyLimit   int
	historyPattern string
	historyDays    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the learning-event archive",
	Long: `Query the SQLite archive of learning events.

Every success, failure, and correction recorded into the pattern store is
also appended here, so the full learning trail survives snapshot resets.`,
}

var historyRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest archived events",
	Run:   runHistoryRecent,
}

var historyAggregatesCmd = &cobra.Command{
	Use:   "aggregates",
	Short: "Summarize archived events per detector",
	Run:   runHistoryAggregates,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete archived events older than the retention window",
	Run:   runHistoryPrune,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyFormat, "format", "json", "Output format (json, human)")

	historyRecentCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum events to return")
	historyRecentCmd.Flags().StringVar(&historyPattern, "pattern", "", "Filter by pattern id")
	historyAggregatesCmd.Flags().IntVar(&historyDays, "days", 30, "Window in days")
	historyPruneCmd.Flags().IntVar(&historyDays, "days", 90, "Delete events older than this many days")

	historyCmd.AddCommand(historyRecentCmd)
	historyCmd.AddCommand(historyAggregatesCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryRecent(cmd *cobra.Command, args []string) {
	logger := newLogger(historyFormat)
	repoRoot := mustGetRepoRoot()
	history, closer := mustOpenHistory(repoRoot, logger)
	defer closer()

	events, err := history.RecentEvents(historyLimit, historyPattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying history: %v\n", err)
		os.Exit(1)
	}

	if historyFormat == "human" {
		for _, ev := range events {
			fmt.Printf("%s  %-10s %-16s %-24s conf=%.0f\n",
				ev.RecordedAt.Format(time.RFC3339), ev.Type, ev.Detector, ev.Kind, ev.Confidence)
		}
		return
	}

	printJSON(map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func runHistoryAggregates(cmd *cobra.Command, args []string) {
	logger := newLogger(historyFormat)
	repoRoot := mustGetRepoRoot()
	history, closer := mustOpenHistory(repoRoot, logger)
	defer closer()

	since := time.Now().UTC().AddDate(0, 0, -historyDays)
	aggregates, err := history.DetectorAggregates(since)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying history: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"since":     since,
		"detectors": aggregates,
	})
}

func runHistoryPrune(cmd *cobra.Command, args []string) {
	logger := newLogger(historyFormat)
	repoRoot := mustGetRepoRoot()
	history, closer := mustOpenHistory(repoRoot, logger)
	defer closer()

	before := time.Now().UTC().AddDate(0, 0, -historyDays)
	removed, err := history.Prune(before)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning history: %v\n", err)
		os.Exit(1)
	}

	printJSON(map[string]interface{}{
		"removed": removed,
	})
}
