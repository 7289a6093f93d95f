package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
	"github.com/AntonProkopyev/gh-summary-bot/internal/report"
)

var cachedCmd = &cobra.Command{
	Use:   "cached <user> [year | start end]",
	Short: "Prints a previously computed report without calling GitHub",
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
		if rt.cache == nil {
			fail(fmt.Errorf("no cache backend configured (GHSUMMARY_CACHE_BACKEND=none)"))
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cached, ok, err := rt.cache.Get(ctx, subject, dateRange.Key())
		if err != nil {
			fail(err)
		}
		if !ok {
			fmt.Printf("No cached report for %s (%s). Run `gh-summary analyze` first.\n",
				subject, dateRange.Description())
			if rt.sqlStore != nil {
				years, err := rt.sqlStore.Years(ctx, subject)
				if err == nil && len(years) > 0 {
					fmt.Printf("Cached years for %s: %v\n", subject, years)
				}
			}
			return
		}
		fmt.Print(report.Yearly(cached.Stats))
		fmt.Printf("\nCached at: %s\n", cached.CreatedAt.UTC().Format("2006-01-02 15:04 UTC"))
	},
}

func init() {
	rootCmd.AddCommand(cachedCmd)
}
