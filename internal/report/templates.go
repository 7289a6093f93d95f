// Package report renders contribution statistics as plain text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

// Yearly renders a single-range contribution report.
func Yearly(s domain.ContributionStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GitHub Contributions Report\n")
	fmt.Fprintf(&b, "User:   %s\n", s.Subject)
	fmt.Fprintf(&b, "Period: %s\n\n", s.DateRange.Description())

	fmt.Fprintf(&b, "Contribution Summary\n")
	fmt.Fprintf(&b, "  Total Contributions: %d\n", s.TotalContributions())
	fmt.Fprintf(&b, "  Commits:             %d\n", s.Commits)
	fmt.Fprintf(&b, "  Pull Requests:       %d\n", s.PullRequests)
	fmt.Fprintf(&b, "  Issues:              %d\n", s.Issues)
	fmt.Fprintf(&b, "  Discussions:         %d\n", s.Discussions)
	fmt.Fprintf(&b, "  Code Reviews:        %d\n\n", s.Reviews)

	fmt.Fprintf(&b, "Code Statistics (%s)\n", s.LinesMethod)
	fmt.Fprintf(&b, "  Lines Added:   %d\n", s.LinesAdded)
	fmt.Fprintf(&b, "  Lines Deleted: %d\n", s.LinesDeleted)
	fmt.Fprintf(&b, "  Net Lines:     %d\n\n", s.LinesAdded-s.LinesDeleted)

	fmt.Fprintf(&b, "Activity Metrics\n")
	fmt.Fprintf(&b, "  Repositories Contributed: %d\n", s.ReposContributed)
	fmt.Fprintf(&b, "  Public Repositories:      %d\n", s.PublicRepos)
	fmt.Fprintf(&b, "  Private Contributions:    %d\n\n", s.PrivateContributions)

	fmt.Fprintf(&b, "Social Stats\n")
	fmt.Fprintf(&b, "  Starred Repos: %d\n", s.StarredRepos)
	fmt.Fprintf(&b, "  Followers:     %d\n", s.Followers)
	fmt.Fprintf(&b, "  Following:     %d\n\n", s.Following)

	fmt.Fprintf(&b, "Top Languages\n")
	b.WriteString(topLanguages(s.Languages, 5))
	return b.String()
}

// AllTime renders the cross-year aggregate, including mean and median
// contributions per year.
func AllTime(s domain.AllTimeStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "All-Time GitHub Statistics\n")
	fmt.Fprintf(&b, "User:   %s\n", s.Subject)
	fmt.Fprintf(&b, "Period: %d - %d (%d years)\n\n", s.FirstYear, s.LastYear, s.TotalYears)

	fmt.Fprintf(&b, "Total Contributions\n")
	fmt.Fprintf(&b, "  All Contributions: %d\n", s.TotalContributions())
	fmt.Fprintf(&b, "  Commits:           %d\n", s.Commits)
	fmt.Fprintf(&b, "  Pull Requests:     %d\n", s.PullRequests)
	fmt.Fprintf(&b, "  Issues:            %d\n", s.Issues)
	fmt.Fprintf(&b, "  Discussions:       %d\n", s.Discussions)
	fmt.Fprintf(&b, "  Code Reviews:      %d\n\n", s.Reviews)

	if len(s.YearlyTotals) > 0 {
		totals := lo.Map(s.YearlyTotals, func(yt domain.YearTotal, _ int) float64 {
			return float64(yt.Total)
		})
		mean, _ := stats.Mean(totals)
		median, _ := stats.Median(totals)
		busiest := lo.MaxBy(s.YearlyTotals, func(a, b domain.YearTotal) bool {
			return a.Total > b.Total
		})
		fmt.Fprintf(&b, "Yearly Trend\n")
		fmt.Fprintf(&b, "  Mean Contributions/Year:   %.1f\n", mean)
		fmt.Fprintf(&b, "  Median Contributions/Year: %.1f\n", median)
		fmt.Fprintf(&b, "  Busiest Year:              %d (%d)\n\n", busiest.Year, busiest.Total)
	}

	fmt.Fprintf(&b, "Code Statistics (%s)\n", strings.Join(s.LineMethods, ", "))
	fmt.Fprintf(&b, "  Lines Added:   %d\n", s.LinesAdded)
	fmt.Fprintf(&b, "  Lines Deleted: %d\n", s.LinesDeleted)
	fmt.Fprintf(&b, "  Net Lines:     %d\n\n", s.LinesAdded-s.LinesDeleted)

	fmt.Fprintf(&b, "Activity Metrics\n")
	fmt.Fprintf(&b, "  Repositories Contributed: %d\n", s.ReposContributed)
	fmt.Fprintf(&b, "  Public Repositories:      %d\n", s.PublicRepos)
	fmt.Fprintf(&b, "  Private Contributions:    %d\n\n", s.PrivateContributions)

	fmt.Fprintf(&b, "Social Stats\n")
	fmt.Fprintf(&b, "  Starred Repos: %d\n", s.StarredRepos)
	fmt.Fprintf(&b, "  Followers:     %d\n", s.Followers)
	fmt.Fprintf(&b, "  Following:     %d\n\n", s.Following)

	fmt.Fprintf(&b, "Top Languages (All Time)\n")
	b.WriteString(topLanguages(s.Languages, 10))
	fmt.Fprintf(&b, "\nLast updated: %s\n", s.LastUpdated.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}

// Languages renders per-language percentages with text bars.
func Languages(subject, period string, languages map[string]int) string {
	if len(languages) == 0 {
		return fmt.Sprintf("No language data available for %s (%s)\n", subject, period)
	}

	total := lo.Sum(lo.Values(languages))
	var b strings.Builder
	fmt.Fprintf(&b, "Language Statistics for %s (%s)\n\n", subject, period)
	for _, entry := range sortedLanguages(languages)[:min(len(languages), 10)] {
		percentage := float64(entry.size) / float64(total) * 100
		bar := strings.Repeat("#", int(percentage/5))
		fmt.Fprintf(&b, "%-14s %s %.1f%% (%d bytes)\n", entry.name, bar, percentage, entry.size)
	}
	return b.String()
}

type langEntry struct {
	name string
	size int
}

func sortedLanguages(languages map[string]int) []langEntry {
	entries := make([]langEntry, 0, len(languages))
	for name, size := range languages {
		entries = append(entries, langEntry{name, size})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].size != entries[j].size {
			return entries[i].size > entries[j].size
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

func topLanguages(languages map[string]int, n int) string {
	if len(languages) == 0 {
		return "  No language data available\n"
	}
	var b strings.Builder
	for i, entry := range sortedLanguages(languages)[:min(len(languages), n)] {
		fmt.Fprintf(&b, "  %d. %s: %d bytes\n", i+1, entry.name, entry.size)
	}
	return b.String()
}
