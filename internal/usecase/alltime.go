package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

// DefaultEpochYear is the first year the all-time analysis considers.
const DefaultEpochYear = 2008

// allTimeConcurrency bounds the per-year fan-out. Years are independent
// aggregations; the shared rate-limit tracker keeps one token's budget
// safe across them.
const allTimeConcurrency = 3

// AllTime aggregates calendar-year reports from epochYear through now's
// year into one AllTimeStats. Cached years are served from the report
// cache; missing years are computed and written through.
func (a *Aggregator) AllTime(ctx context.Context, subject string, epochYear int, now time.Time, progress Progress) (domain.AllTimeStats, error) {
	if epochYear <= 0 {
		epochYear = DefaultEpochYear
	}
	lastYear := now.UTC().Year()
	if lastYear < epochYear {
		return domain.AllTimeStats{}, fmt.Errorf("epoch year %d is in the future", epochYear)
	}

	var mu sync.Mutex
	perYear := make(map[int]domain.ContributionStats)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(allTimeConcurrency)
	for year := epochYear; year <= lastYear; year++ {
		year := year
		g.Go(func() error {
			stats, err := a.Analyze(gctx, subject, domain.CalendarYear(year), progress)
			if err != nil {
				return fmt.Errorf("analyzing %d: %w", year, err)
			}
			mu.Lock()
			perYear[year] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.AllTimeStats{}, err
	}

	return mergeYears(subject, perYear, now), nil
}

// mergeYears folds per-year reports into the all-time aggregate. Counter
// fields sum across years; snapshot fields come from the most recent year
// with any activity.
func mergeYears(subject string, perYear map[int]domain.ContributionStats, now time.Time) domain.AllTimeStats {
	years := lo.Keys(perYear)
	sort.Ints(years)

	result := domain.AllTimeStats{
		Subject:     subject,
		Languages:   make(map[string]int),
		LastUpdated: now.UTC(),
	}

	var methods []string
	snapshotYear := 0
	for _, year := range years {
		stats := perYear[year]
		if stats.TotalContributions() == 0 && stats.LinesAdded == 0 && stats.LinesDeleted == 0 {
			continue
		}
		if result.FirstYear == 0 {
			result.FirstYear = year
		}
		result.LastYear = year
		result.TotalYears++

		result.Commits += stats.Commits
		result.PullRequests += stats.PullRequests
		result.Issues += stats.Issues
		result.Discussions += stats.Discussions
		result.Reviews += stats.Reviews
		result.PrivateContributions += stats.PrivateContributions
		result.LinesAdded += stats.LinesAdded
		result.LinesDeleted += stats.LinesDeleted
		methods = append(methods, string(stats.LinesMethod))

		for lang, size := range stats.Languages {
			result.Languages[lang] += size
		}
		result.YearlyTotals = append(result.YearlyTotals, domain.YearTotal{
			Year:  year,
			Total: stats.TotalContributions(),
		})
		snapshotYear = year
	}

	if snapshotYear != 0 {
		snapshot := perYear[snapshotYear]
		result.ReposContributed = snapshot.ReposContributed
		result.StarredRepos = snapshot.StarredRepos
		result.Followers = snapshot.Followers
		result.Following = snapshot.Following
		result.PublicRepos = snapshot.PublicRepos
	}
	result.LineMethods = lo.Uniq(methods)
	return result
}
