package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
	"github.com/AntonProkopyev/gh-summary-bot/internal/report"
)

var languagesCmd = &cobra.Command{
	Use:   "languages <user> [year | start end]",
	Short: "Prints per-language statistics for a user",
	Args:  cobra.RangeArgs(1, 3),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		stats, err := rt.aggregator.Analyze(ctx, subject, dateRange, rt.progress)
		if err != nil {
			fail(err)
		}
		fmt.Print(report.Languages(subject, dateRange.Description(), stats.Languages))
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
