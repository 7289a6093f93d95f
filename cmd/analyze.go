package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
	"github.com/AntonProkopyev/gh-summary-bot/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <user> [year | start end]",
	Short: "Analyzes a user's contributions and prints a report",
	Long: `Analyzes the given GitHub user's contributions and prints a report.
The date range defaults to the trailing 12 months; pass a 4-digit year for
a calendar year, or two ISO dates (YYYY-MM-DD) for a custom range.`,
	Args: cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		subject := args[0]
		dateRange, err := domain.ParseRangeArgs(args[1:], time.Now())
		if err != nil {
			fail(err)
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			fail(err)
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		stats, err := rt.aggregator.Analyze(ctx, subject, dateRange, rt.progress)
		if err != nil {
			fail(err)
		}
		fmt.Print(report.Yearly(stats))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Duration("timeout", 30*time.Minute, "Abort the analysis after this duration")
}
