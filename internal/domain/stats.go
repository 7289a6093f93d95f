// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// LineMethod records how the line-change totals in a report were computed.
type LineMethod string

const (
	// LineMethodExact means commit-level additions/deletions covered every
	// contributed repository.
	LineMethodExact LineMethod = "exact"
	// LineMethodEstimated means at least one repository's lines were
	// derived from pull-request totals instead of commit history.
	LineMethodEstimated LineMethod = "estimated"
)

// ContributionStats is the consolidated activity report for one
// (subject, date range). It is built once by the aggregator and never
// mutated afterwards; storage adapters copy it, they do not share it.
type ContributionStats struct {
	Subject   string    `json:"subject"`
	DateRange DateRange `json:"date_range"`

	Commits              int `json:"commits"`
	PullRequests         int `json:"pull_requests"`
	Issues               int `json:"issues"`
	Discussions          int `json:"discussions"`
	Reviews              int `json:"reviews"`
	ReposContributed     int `json:"repos_contributed"`
	StarredRepos         int `json:"starred_repos"`
	Followers            int `json:"followers"`
	Following            int `json:"following"`
	PublicRepos          int `json:"public_repos"`
	PrivateContributions int `json:"private_contributions"`

	// Languages maps language name to contributed byte count.
	Languages map[string]int `json:"languages"`

	LinesAdded   int        `json:"lines_added"`
	LinesDeleted int        `json:"lines_deleted"`
	LinesMethod  LineMethod `json:"lines_method"`
}

// TotalContributions sums the countable contribution kinds.
func (s ContributionStats) TotalContributions() int {
	return s.Commits + s.PullRequests + s.Issues + s.Discussions
}

// CachedReport wraps a stored ContributionStats with storage metadata.
type CachedReport struct {
	ID        int64             `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Stats     ContributionStats `json:"stats"`
}

// Profile holds the account-level counters fetched in the first
// aggregation phase. NodeID is needed by the commit-history queries.
type Profile struct {
	NodeID       string
	Login        string
	Followers    int
	Following    int
	PublicRepos  int
	StarredRepos int
	Issues       int
	Discussions  int
}

// RepoRef identifies a repository the subject contributed commits to.
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Name }

// Calendar is the per-range contribution summary from the
// contributionsCollection query.
type Calendar struct {
	Commits               int
	Issues                int
	PullRequests          int
	Reviews               int
	RestrictedCount       int
	ReposWithCommits      int
	ReposWithPullRequests int
	ReposWithIssues       int
	Repositories          []RepoRef
	// Languages accumulates byte counts keyed by language name, summed
	// across every contributed repository.
	Languages map[string]int
}

// ReposContributed is the repository-contribution total the upstream
// exposes as three separate counters.
func (c Calendar) ReposContributed() int {
	return c.ReposWithCommits + c.ReposWithPullRequests + c.ReposWithIssues
}

// Commit is a transient record used only during line calculation.
type Commit struct {
	OID         string
	CommittedAt time.Time
	Additions   int
	Deletions   int
}

// PullRequest is a transient record used only during the line-calculation
// fallback. Repo is the base repository in owner/name form.
type PullRequest struct {
	ID        string
	CreatedAt time.Time
	Additions int
	Deletions int
	Repo      string
}

// LineStats is the outcome of the line-change calculation.
type LineStats struct {
	Added   int
	Deleted int
	Method  LineMethod
	// SourceCount is the number of commits (plus fallback PRs) the totals
	// were derived from.
	SourceCount int
}

// AllTimeStats aggregates calendar-year reports across a subject's whole
// history. Counter fields are sums across years; snapshot fields
// (followers, stars, ...) come from the most recent contributing year.
type AllTimeStats struct {
	Subject              string
	TotalYears           int
	FirstYear            int
	LastYear             int
	Commits              int
	PullRequests         int
	Issues               int
	Discussions          int
	Reviews              int
	PrivateContributions int
	LinesAdded           int
	LinesDeleted         int
	LineMethods          []string
	ReposContributed     int
	StarredRepos         int
	Followers            int
	Following            int
	PublicRepos          int
	Languages            map[string]int
	// YearlyTotals holds the per-year contribution totals, oldest first,
	// for trend reporting.
	YearlyTotals []YearTotal
	LastUpdated  time.Time
}

// YearTotal is one year's contribution count inside AllTimeStats.
type YearTotal struct {
	Year  int
	Total int
}

// TotalContributions sums the countable contribution kinds.
func (s AllTimeStats) TotalContributions() int {
	return s.Commits + s.PullRequests + s.Issues + s.Discussions
}
