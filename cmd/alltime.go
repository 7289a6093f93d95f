package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonProkopyev/gh-summary-bot/internal/report"
)

var alltimeCmd = &cobra.Command{
	Use:   "alltime <user>",
	Short: "Aggregates per-year reports across the user's whole history",
	Long: `Aggregates calendar-year contribution reports from the epoch year
(GHSUMMARY_EPOCH_YEAR, default 2008) through the current year. Years
already cached are served from the cache; the rest are computed and
cached along the way.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subject := args[0]

		rt, err := newRuntime(cmd)
		if err != nil {
			fail(err)
		}

		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		stats, err := rt.aggregator.AllTime(ctx, subject, rt.cfg.EpochYear, time.Now(), rt.progress)
		if err != nil {
			fail(err)
		}
		fmt.Print(report.AllTime(stats))
	},
}

func init() {
	rootCmd.AddCommand(alltimeCmd)
	alltimeCmd.Flags().Duration("timeout", 2*time.Hour, "Abort the analysis after this duration")
}
