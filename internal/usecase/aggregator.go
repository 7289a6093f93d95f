// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
	"github.com/AntonProkopyev/gh-summary-bot/internal/storage"
)

// Source defines the behavior of a gateway fetching contribution data
// from GitHub.
type Source interface {
	Profile(ctx context.Context, login string) (domain.Profile, error)
	Calendar(ctx context.Context, login string, r domain.DateRange) (domain.Calendar, error)
	RepoCommits(ctx context.Context, repo domain.RepoRef, authorID string, r domain.DateRange) ([]domain.Commit, bool, error)
	PullRequests(ctx context.Context, login string, r domain.DateRange) ([]domain.PullRequest, error)
}

// Progress receives human-readable notifications during long
// aggregations. A nil Progress is valid; failures inside the sink never
// abort the aggregation.
type Progress func(message string)

// Aggregator orchestrates the contribution queries, merges the partial
// results into one ContributionStats, and reads/writes through the
// report cache.
type Aggregator struct {
	source Source
	cache  storage.ReportCache // nil means cache-free operation
	logger logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance. cache may be nil.
func NewAggregator(source Source, cache storage.ReportCache, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{source: source, cache: cache, logger: logger}
}

// Analyze returns the contribution statistics for (subject, r), serving
// from cache when possible. Cache I/O failures are logged and never
// surfaced: a freshly computed result is still returned even when the
// write-through failed.
func (a *Aggregator) Analyze(ctx context.Context, subject string, r domain.DateRange, progress Progress) (domain.ContributionStats, error) {
	if a.cache != nil {
		cached, ok, err := a.cache.Get(ctx, subject, r.Key())
		if err != nil {
			a.logger.WithError(err).Warn("cache read failed, computing fresh report")
		} else if ok {
			a.logger.WithFields(logrus.Fields{
				"subject": subject,
				"range":   r.Key(),
			}).Debug("cache hit")
			return cached.Stats, nil
		}
	}

	stats, err := a.aggregate(ctx, subject, r, progress)
	if err != nil {
		return domain.ContributionStats{}, err
	}

	if a.cache != nil {
		if _, err := a.cache.Put(ctx, subject, r.Key(), stats); err != nil {
			a.logger.WithError(err).Warn("cache write failed, returning fresh report anyway")
		}
	}
	return stats, nil
}

// aggregate runs the four fetch phases sequentially; later phases depend
// on identifiers discovered earlier.
func (a *Aggregator) aggregate(ctx context.Context, subject string, r domain.DateRange, progress Progress) (domain.ContributionStats, error) {
	report(progress, fmt.Sprintf("Fetching profile for %s...", subject))
	profile, err := a.source.Profile(ctx, subject)
	if err != nil {
		return domain.ContributionStats{}, fmt.Errorf("fetching profile for %s: %w", subject, err)
	}

	report(progress, fmt.Sprintf("Fetching contribution calendar for %s (%s)...", subject, r.Description()))
	cal, err := a.source.Calendar(ctx, subject, r)
	if err != nil {
		return domain.ContributionStats{}, fmt.Errorf("fetching contribution calendar for %s: %w", subject, err)
	}

	lines, err := a.calculateLines(ctx, subject, profile.NodeID, cal.Repositories, r, progress)
	if err != nil {
		return domain.ContributionStats{}, err
	}
	report(progress, fmt.Sprintf("Line calculation complete: +%d / -%d (%s, %d sources)",
		lines.Added, lines.Deleted, lines.Method, lines.SourceCount))

	languages := make(map[string]int, len(cal.Languages))
	for lang, size := range cal.Languages {
		languages[lang] += size
	}

	return domain.ContributionStats{
		Subject:              subject,
		DateRange:            r,
		Commits:              cal.Commits,
		PullRequests:         cal.PullRequests,
		Issues:               cal.Issues,
		Discussions:          profile.Discussions,
		Reviews:              cal.Reviews,
		ReposContributed:     cal.ReposContributed(),
		StarredRepos:         profile.StarredRepos,
		Followers:            profile.Followers,
		Following:            profile.Following,
		PublicRepos:          profile.PublicRepos,
		PrivateContributions: cal.RestrictedCount,
		Languages:            languages,
		LinesAdded:           lines.Added,
		LinesDeleted:         lines.Deleted,
		LinesMethod:          lines.Method,
	}, nil
}

// calculateLines sums commit-level additions/deletions across every
// contributed repository. Repositories without commit-level data fall
// back to their in-range pull requests; the fallback degrades the method
// to estimated but never fails the aggregation.
func (a *Aggregator) calculateLines(ctx context.Context, subject, authorID string, repos []domain.RepoRef, r domain.DateRange, progress Progress) (domain.LineStats, error) {
	report(progress, fmt.Sprintf("Fetching commit history across %d repositories...", len(repos)))

	lines := domain.LineStats{Method: domain.LineMethodExact}
	uncovered := make(map[string]bool)

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return domain.LineStats{}, err
		}
		commits, available, err := a.source.RepoCommits(ctx, repo, authorID, r)
		if err != nil {
			a.logger.WithError(err).Warnf("commit history unavailable for %s, will estimate from pull requests", repo)
			uncovered[repo.String()] = true
			continue
		}
		if !available {
			uncovered[repo.String()] = true
			continue
		}
		for _, c := range commits {
			lines.Added += c.Additions
			lines.Deleted += c.Deletions
		}
		lines.SourceCount += len(commits)
	}

	if len(uncovered) == 0 {
		return lines, nil
	}

	// Fallback: estimate the uncovered repositories from PR-level totals.
	report(progress, fmt.Sprintf("Estimating lines for %d repositories from pull requests...", len(uncovered)))
	lines.Method = domain.LineMethodEstimated

	prs, err := a.source.PullRequests(ctx, subject, r)
	if err != nil {
		if ctx.Err() != nil {
			return domain.LineStats{}, ctx.Err()
		}
		// Best effort: keep the commit-derived totals.
		a.logger.WithError(err).Warn("pull request fallback failed, keeping commit totals")
		return lines, nil
	}

	allUncovered := len(uncovered) == len(repos)
	for _, pr := range prs {
		if !allUncovered && !uncovered[pr.Repo] {
			continue
		}
		lines.Added += pr.Additions
		lines.Deleted += pr.Deletions
		lines.SourceCount++
	}
	return lines, nil
}

// report delivers one progress message, swallowing sink panics.
func report(progress Progress, message string) {
	if progress == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	progress(message)
}
