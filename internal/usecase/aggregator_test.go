package usecase

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
	"github.com/AntonProkopyev/gh-summary-bot/internal/storage"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Profile(ctx context.Context, login string) (domain.Profile, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *mockSource) Calendar(ctx context.Context, login string, r domain.DateRange) (domain.Calendar, error) {
	args := m.Called(ctx, login, r)
	return args.Get(0).(domain.Calendar), args.Error(1)
}

func (m *mockSource) RepoCommits(ctx context.Context, repo domain.RepoRef, authorID string, r domain.DateRange) ([]domain.Commit, bool, error) {
	args := m.Called(ctx, repo, authorID, r)
	var commits []domain.Commit
	if v := args.Get(0); v != nil {
		commits = v.([]domain.Commit)
	}
	return commits, args.Bool(1), args.Error(2)
}

func (m *mockSource) PullRequests(ctx context.Context, login string, r domain.DateRange) ([]domain.PullRequest, error) {
	args := m.Called(ctx, login, r)
	var prs []domain.PullRequest
	if v := args.Get(0); v != nil {
		prs = v.([]domain.PullRequest)
	}
	return prs, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, subject, rangeKey string) (domain.CachedReport, bool, error) {
	args := m.Called(ctx, subject, rangeKey)
	return args.Get(0).(domain.CachedReport), args.Bool(1), args.Error(2)
}

func (m *mockCache) Put(ctx context.Context, subject, rangeKey string, stats domain.ContributionStats) (domain.CachedReport, error) {
	args := m.Called(ctx, subject, rangeKey, stats)
	return args.Get(0).(domain.CachedReport), args.Error(1)
}

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var (
	linuxRepo      = domain.RepoRef{Owner: "torvalds", Name: "linux"}
	subsurfaceRepo = domain.RepoRef{Owner: "subsurface", Name: "subsurface"}
)

func torvaldsProfile() domain.Profile {
	return domain.Profile{
		NodeID:       "MDQ6VXNlcjEwMjQwMjU=",
		Login:        "torvalds",
		Followers:    180000,
		Following:    0,
		PublicRepos:  7,
		StarredRepos: 1,
		Issues:       12,
		Discussions:  4,
	}
}

func torvaldsCalendar() domain.Calendar {
	return domain.Calendar{
		Commits:               820,
		Issues:                14,
		PullRequests:          55,
		Reviews:               31,
		RestrictedCount:       120,
		ReposWithCommits:      2,
		ReposWithPullRequests: 1,
		ReposWithIssues:       1,
		Repositories:          []domain.RepoRef{linuxRepo, subsurfaceRepo},
		Languages:             map[string]int{"C": 940000, "Shell": 5000, "C++": 30000},
	}
}

// linuxCommits is 50 commits of +10/-5 each: +500/-250 in total.
func linuxCommits() []domain.Commit {
	commits := make([]domain.Commit, 50)
	for i := range commits {
		commits[i] = domain.Commit{
			OID:         fmt.Sprintf("oid-%02d", i),
			CommittedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
			Additions:   10,
			Deletions:   5,
		}
	}
	return commits
}

// torvaldsPullRequests is 10 in-range PRs of +7/-3 against subsurface
// (+70/-30) plus 2 against linux that a partial-coverage estimate must
// skip because linux already has commit-level data.
func torvaldsPullRequests() []domain.PullRequest {
	prs := make([]domain.PullRequest, 0, 12)
	for i := 0; i < 10; i++ {
		prs = append(prs, domain.PullRequest{
			ID:        fmt.Sprintf("PR_sub_%02d", i),
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Additions: 7,
			Deletions: 3,
			Repo:      "subsurface/subsurface",
		})
	}
	for i := 0; i < 2; i++ {
		prs = append(prs, domain.PullRequest{
			ID:        fmt.Sprintf("PR_linux_%d", i),
			CreatedAt: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Additions: 1000,
			Deletions: 1000,
			Repo:      "torvalds/linux",
		})
	}
	return prs
}

func TestAggregator_Analyze_ExactWhenEveryRepositoryIsCovered(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, linuxRepo, "MDQ6VXNlcjEwMjQwMjU=", r).
		Return(linuxCommits(), true, nil)
	source.On("RepoCommits", mock.Anything, subsurfaceRepo, "MDQ6VXNlcjEwMjQwMjU=", r).
		Return([]domain.Commit{{OID: "s1", Additions: 20, Deletions: 8}}, true, nil)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LineMethodExact, stats.LinesMethod)
	assert.Equal(t, 520, stats.LinesAdded)
	assert.Equal(t, 258, stats.LinesDeleted)
	source.AssertNotCalled(t, "PullRequests", mock.Anything, mock.Anything, mock.Anything)
	source.AssertExpectations(t)
}

func TestAggregator_Analyze_PartialCoverageEstimatesOnlyUncoveredRepos(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, linuxRepo, "MDQ6VXNlcjEwMjQwMjU=", r).
		Return(linuxCommits(), true, nil)
	source.On("RepoCommits", mock.Anything, subsurfaceRepo, "MDQ6VXNlcjEwMjQwMjU=", r).
		Return(nil, false, nil)
	source.On("PullRequests", mock.Anything, "torvalds", r).Return(torvaldsPullRequests(), nil)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	expected := domain.ContributionStats{
		Subject:              "torvalds",
		DateRange:            r,
		Commits:              820,
		PullRequests:         55,
		Issues:               14,
		Discussions:          4,
		Reviews:              31,
		ReposContributed:     4,
		StarredRepos:         1,
		Followers:            180000,
		Following:            0,
		PublicRepos:          7,
		PrivateContributions: 120,
		Languages:            map[string]int{"C": 940000, "Shell": 5000, "C++": 30000},
		LinesAdded:           570, // 500 from linux commits + 70 from subsurface PRs
		LinesDeleted:         280, // 250 + 30
		LinesMethod:          domain.LineMethodEstimated,
	}
	assert.Equal(t, expected, stats)
	source.AssertExpectations(t)
}

func TestAggregator_Analyze_ZeroCoverageEstimatesFromAllPullRequests(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, false, nil)
	source.On("PullRequests", mock.Anything, "torvalds", r).Return(torvaldsPullRequests(), nil)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LineMethodEstimated, stats.LinesMethod)
	// With no commit data at all, every in-range PR counts, linux included.
	assert.Equal(t, 70+2000, stats.LinesAdded)
	assert.Equal(t, 30+2000, stats.LinesDeleted)
}

func TestAggregator_Analyze_CommitHistoryErrorDegradesToEstimate(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, linuxRepo, mock.Anything, r).
		Return(linuxCommits(), true, nil)
	source.On("RepoCommits", mock.Anything, subsurfaceRepo, mock.Anything, r).
		Return(nil, false, assert.AnError)
	source.On("PullRequests", mock.Anything, "torvalds", r).Return(torvaldsPullRequests(), nil)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LineMethodEstimated, stats.LinesMethod)
	assert.Equal(t, 570, stats.LinesAdded)
}

func TestAggregator_Analyze_PullRequestFallbackFailureKeepsCommitTotals(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, linuxRepo, mock.Anything, r).
		Return(linuxCommits(), true, nil)
	source.On("RepoCommits", mock.Anything, subsurfaceRepo, mock.Anything, r).
		Return(nil, false, nil)
	source.On("PullRequests", mock.Anything, "torvalds", r).Return(nil, assert.AnError)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LineMethodEstimated, stats.LinesMethod)
	assert.Equal(t, 500, stats.LinesAdded)
	assert.Equal(t, 250, stats.LinesDeleted)
}

func TestAggregator_Analyze_ProfileFailurePropagates(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "nobody").Return(domain.Profile{}, assert.AnError)

	agg := NewAggregator(source, nil, testLogger())
	_, err := agg.Analyze(context.Background(), "nobody", r, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "fetching profile for nobody")
}

func TestAggregator_Analyze_CacheHitSkipsTheSource(t *testing.T) {
	r := domain.CalendarYear(2024)
	cachedStats := domain.ContributionStats{
		Subject:     "torvalds",
		DateRange:   r,
		Commits:     820,
		LinesMethod: domain.LineMethodExact,
	}
	cache := new(mockCache)
	cache.On("Get", mock.Anything, "torvalds", "2024").
		Return(domain.CachedReport{ID: 7, Stats: cachedStats}, true, nil)
	source := new(mockSource)

	agg := NewAggregator(source, cache, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, cachedStats, stats)
	source.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_Analyze_CacheReadFailureComputesFresh(t *testing.T) {
	r := domain.CalendarYear(2024)
	cache := new(mockCache)
	cache.On("Get", mock.Anything, "torvalds", "2024").
		Return(domain.CachedReport{}, false, assert.AnError)
	cache.On("Put", mock.Anything, "torvalds", "2024", mock.Anything).
		Return(domain.CachedReport{ID: 1}, nil)

	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(domain.Calendar{Languages: map[string]int{}}, nil)

	agg := NewAggregator(source, cache, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, "torvalds", stats.Subject)
	cache.AssertExpectations(t)
}

func TestAggregator_Analyze_CacheWriteFailureStillReturnsStats(t *testing.T) {
	r := domain.CalendarYear(2024)
	cache := new(mockCache)
	cache.On("Get", mock.Anything, "torvalds", "2024").
		Return(domain.CachedReport{}, false, nil)
	cache.On("Put", mock.Anything, "torvalds", "2024", mock.Anything).
		Return(domain.CachedReport{}, assert.AnError)

	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(domain.Calendar{Languages: map[string]int{}}, nil)

	agg := NewAggregator(source, cache, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, nil)

	require.NoError(t, err)
	assert.Equal(t, "torvalds", stats.Subject)
	assert.Equal(t, domain.LineMethodExact, stats.LinesMethod)
}

func TestAggregator_Analyze_ProgressPhases(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(torvaldsCalendar(), nil)
	source.On("RepoCommits", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, false, nil)
	source.On("PullRequests", mock.Anything, "torvalds", r).Return(torvaldsPullRequests(), nil)

	var messages []string
	agg := NewAggregator(source, nil, testLogger())
	_, err := agg.Analyze(context.Background(), "torvalds", r, func(message string) {
		messages = append(messages, message)
	})

	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Contains(t, messages[0], "Fetching profile for torvalds")
	assert.Contains(t, messages[1], "Fetching contribution calendar for torvalds (2024)")
	assert.Contains(t, messages[2], "commit history across 2 repositories")
	assert.Contains(t, messages[3], "Estimating lines for 2 repositories")
	assert.Contains(t, messages[4], "Line calculation complete")
}

func TestAggregator_Analyze_PanickingProgressSinkIsSwallowed(t *testing.T) {
	r := domain.CalendarYear(2024)
	source := new(mockSource)
	source.On("Profile", mock.Anything, "torvalds").Return(torvaldsProfile(), nil)
	source.On("Calendar", mock.Anything, "torvalds", r).Return(domain.Calendar{Languages: map[string]int{}}, nil)

	agg := NewAggregator(source, nil, testLogger())
	stats, err := agg.Analyze(context.Background(), "torvalds", r, func(string) {
		panic("broken sink")
	})

	require.NoError(t, err)
	assert.Equal(t, "torvalds", stats.Subject)
}

func TestAggregator_AllTime_MergesContributingYears(t *testing.T) {
	now := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)
	cache, err := storage.NewMemoryCache(16, time.Hour)
	require.NoError(t, err)

	// 2008 had no activity at all and must be skipped in the merge.
	seed := func(year, commits, prs, added, deleted, followers int, langs map[string]int) {
		_, err := cache.Put(context.Background(), "torvalds", fmt.Sprint(year), domain.ContributionStats{
			Subject:      "torvalds",
			DateRange:    domain.CalendarYear(year),
			Commits:      commits,
			PullRequests: prs,
			Followers:    followers,
			Languages:    langs,
			LinesAdded:   added,
			LinesDeleted: deleted,
			LinesMethod:  domain.LineMethodExact,
		})
		require.NoError(t, err)
	}
	seed(2008, 0, 0, 0, 0, 10, nil)
	seed(2009, 10, 2, 100, 50, 50, map[string]int{"C": 1000})
	seed(2010, 20, 3, 200, 80, 80, map[string]int{"C": 500, "Perl": 10})

	source := new(mockSource) // every year is cached; the source must stay idle
	agg := NewAggregator(source, cache, testLogger())

	stats, err := agg.AllTime(context.Background(), "torvalds", 2008, now, nil)

	require.NoError(t, err)
	assert.Equal(t, "torvalds", stats.Subject)
	assert.Equal(t, 2, stats.TotalYears)
	assert.Equal(t, 2009, stats.FirstYear)
	assert.Equal(t, 2010, stats.LastYear)
	assert.Equal(t, 30, stats.Commits)
	assert.Equal(t, 5, stats.PullRequests)
	assert.Equal(t, 300, stats.LinesAdded)
	assert.Equal(t, 130, stats.LinesDeleted)
	assert.Equal(t, map[string]int{"C": 1500, "Perl": 10}, stats.Languages)
	assert.Equal(t, []string{"exact"}, stats.LineMethods)
	// Snapshot fields come from the latest contributing year.
	assert.Equal(t, 80, stats.Followers)
	assert.Equal(t, []domain.YearTotal{
		{Year: 2009, Total: 12},
		{Year: 2010, Total: 23},
	}, stats.YearlyTotals)
	source.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
}

func TestAggregator_AllTime_RejectsFutureEpoch(t *testing.T) {
	agg := NewAggregator(new(mockSource), nil, testLogger())

	_, err := agg.AllTime(context.Background(), "torvalds", 2030,
		time.Date(2025, 8, 23, 0, 0, 0, 0, time.UTC), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "epoch year 2030 is in the future")
}
