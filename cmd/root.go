// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gh-summary",
	Short: "Analyzes a GitHub user's contribution activity.",
	Long: `gh-summary analyzes a GitHub user's contribution activity over a date
range (commits, pull requests, issues, reviews, languages, line changes)
through the GitHub GraphQL API, and caches computed reports so repeated
analyses are served instantly.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress progress messages")
}
