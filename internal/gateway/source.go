// Package gateway provides a gateway to the GitHub GraphQL API: a typed
// transport, a retrying client with rate-limit budgeting, cursor
// pagination, and the contribution queries built on top of them.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

// ErrSubjectNotFound marks a GraphQL NOT_FOUND response for the requested
// login.
var ErrSubjectNotFound = errors.New("github user not found")

// Source issues the contribution queries. It is the fetch side of the
// aggregation; merging happens in the usecase layer.
type Source struct {
	querier Querier
	logger  logrus.FieldLogger
	// maxPages guards every paginated query against unbounded iteration
	// on misbehaving responses.
	maxPages int
}

// NewSource creates a Source on top of a retrying client.
func NewSource(querier Querier, maxPages int, logger logrus.FieldLogger) *Source {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Source{querier: querier, logger: logger, maxPages: maxPages}
}

type totalCount struct {
	TotalCount int `json:"totalCount"`
}

// Profile fetches the account-level counters for a login.
func (s *Source) Profile(ctx context.Context, login string) (domain.Profile, error) {
	data, err := s.querier.Query(ctx, profileQuery, map[string]any{"login": login})
	if err != nil {
		return domain.Profile{}, mapNotFound(err, login)
	}

	var resp struct {
		User *struct {
			ID                   string     `json:"id"`
			Login                string     `json:"login"`
			Followers            totalCount `json:"followers"`
			Following            totalCount `json:"following"`
			Repositories         totalCount `json:"repositories"`
			StarredRepositories  totalCount `json:"starredRepositories"`
			Issues               totalCount `json:"issues"`
			RepositoryDiscussion totalCount `json:"repositoryDiscussions"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Profile{}, &MalformedError{Err: fmt.Errorf("decoding profile: %w", err)}
	}
	if resp.User == nil {
		return domain.Profile{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, login)
	}
	return domain.Profile{
		NodeID:       resp.User.ID,
		Login:        resp.User.Login,
		Followers:    resp.User.Followers.TotalCount,
		Following:    resp.User.Following.TotalCount,
		PublicRepos:  resp.User.Repositories.TotalCount,
		StarredRepos: resp.User.StarredRepositories.TotalCount,
		Issues:       resp.User.Issues.TotalCount,
		Discussions:  resp.User.RepositoryDiscussion.TotalCount,
	}, nil
}

// Calendar fetches the contribution summary for a range, merging language
// byte counts across all contributed repositories.
func (s *Source) Calendar(ctx context.Context, login string, r domain.DateRange) (domain.Calendar, error) {
	from, to := r.GitHubFormat()
	data, err := s.querier.Query(ctx, calendarQuery, map[string]any{
		"login": login,
		"from":  from,
		"to":    to,
	})
	if err != nil {
		return domain.Calendar{}, mapNotFound(err, login)
	}

	var resp struct {
		User *struct {
			ContributionsCollection struct {
				TotalCommitContributions                     int `json:"totalCommitContributions"`
				TotalIssueContributions                      int `json:"totalIssueContributions"`
				TotalPullRequestContributions                int `json:"totalPullRequestContributions"`
				TotalPullRequestReviewContributions          int `json:"totalPullRequestReviewContributions"`
				TotalRepositoriesWithContributedCommits      int `json:"totalRepositoriesWithContributedCommits"`
				TotalRepositoriesWithContributedPullRequests int `json:"totalRepositoriesWithContributedPullRequests"`
				TotalRepositoriesWithContributedIssues       int `json:"totalRepositoriesWithContributedIssues"`
				RestrictedContributionsCount                 int `json:"restrictedContributionsCount"`
				CommitContributionsByRepository              []struct {
					Repository struct {
						Name  string `json:"name"`
						Owner struct {
							Login string `json:"login"`
						} `json:"owner"`
						Languages struct {
							Edges []struct {
								Size int `json:"size"`
								Node struct {
									Name string `json:"name"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"languages"`
					} `json:"repository"`
					Contributions totalCount `json:"contributions"`
				} `json:"commitContributionsByRepository"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Calendar{}, &MalformedError{Err: fmt.Errorf("decoding calendar: %w", err)}
	}
	if resp.User == nil {
		return domain.Calendar{}, fmt.Errorf("%w: %s", ErrSubjectNotFound, login)
	}

	cc := resp.User.ContributionsCollection
	cal := domain.Calendar{
		Commits:               cc.TotalCommitContributions,
		Issues:                cc.TotalIssueContributions,
		PullRequests:          cc.TotalPullRequestContributions,
		Reviews:               cc.TotalPullRequestReviewContributions,
		RestrictedCount:       cc.RestrictedContributionsCount,
		ReposWithCommits:      cc.TotalRepositoriesWithContributedCommits,
		ReposWithPullRequests: cc.TotalRepositoriesWithContributedPullRequests,
		ReposWithIssues:       cc.TotalRepositoriesWithContributedIssues,
		Languages:             make(map[string]int),
	}
	for _, rc := range cc.CommitContributionsByRepository {
		cal.Repositories = append(cal.Repositories, domain.RepoRef{
			Owner: rc.Repository.Owner.Login,
			Name:  rc.Repository.Name,
		})
		for _, edge := range rc.Repository.Languages.Edges {
			cal.Languages[edge.Node.Name] += edge.Size
		}
	}
	return cal, nil
}

// RepoCommits pages through a repository's commit history authored by the
// subject within the range. available is false when the repository
// exposes no commit-level data (missing repo, empty HEAD, or no access),
// which cues the pull-request fallback for that repository.
func (s *Source) RepoCommits(ctx context.Context, repo domain.RepoRef, authorID string, r domain.DateRange) (commits []domain.Commit, available bool, err error) {
	from, to := r.GitHubFormat()
	pager := NewPager(s.querier, repoCommitsQuery, map[string]any{
		"owner":    repo.Owner,
		"repo":     repo.Name,
		"authorId": authorID,
		"since":    from,
		"until":    to,
	}, s.maxPages, "repository", "object", "history")

	available = false
	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}

		var resp struct {
			Repository *struct {
				Object *struct {
					History struct {
						Nodes []struct {
							OID           string    `json:"oid"`
							CommittedDate time.Time `json:"committedDate"`
							Additions     int       `json:"additions"`
							Deletions     int       `json:"deletions"`
						} `json:"nodes"`
					} `json:"history"`
				} `json:"object"`
			} `json:"repository"`
		}
		if err := json.Unmarshal(page, &resp); err != nil {
			return nil, false, &MalformedError{Err: fmt.Errorf("decoding commit history: %w", err)}
		}
		if resp.Repository == nil || resp.Repository.Object == nil {
			break
		}
		available = true
		for _, node := range resp.Repository.Object.History.Nodes {
			commits = append(commits, domain.Commit{
				OID:         node.OID,
				CommittedAt: node.CommittedDate,
				Additions:   node.Additions,
				Deletions:   node.Deletions,
			})
		}
	}
	return commits, available, nil
}

// PullRequests pages through the subject's pull requests newest-first and
// returns the ones created inside the range. Iteration stops as soon as a
// whole page falls before the range start, so deep histories cost only
// the pages that matter.
func (s *Source) PullRequests(ctx context.Context, login string, r domain.DateRange) ([]domain.PullRequest, error) {
	pager := NewPager(s.querier, pullRequestsQuery, map[string]any{
		"login": login,
	}, s.maxPages, "user", "pullRequests")

	var prs []domain.PullRequest
	for {
		page, ok, err := pager.Next(ctx)
		if err != nil {
			return nil, mapNotFound(err, login)
		}
		if !ok {
			break
		}

		var resp struct {
			User *struct {
				PullRequests struct {
					Nodes []struct {
						ID             string    `json:"id"`
						CreatedAt      time.Time `json:"createdAt"`
						Additions      int       `json:"additions"`
						Deletions      int       `json:"deletions"`
						BaseRepository *struct {
							NameWithOwner string `json:"nameWithOwner"`
						} `json:"baseRepository"`
					} `json:"nodes"`
				} `json:"pullRequests"`
			} `json:"user"`
		}
		if err := json.Unmarshal(page, &resp); err != nil {
			return nil, &MalformedError{Err: fmt.Errorf("decoding pull requests: %w", err)}
		}
		if resp.User == nil {
			return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, login)
		}

		nodes := resp.User.PullRequests.Nodes
		beforeRange := len(nodes) > 0
		for _, node := range nodes {
			if !node.CreatedAt.Before(r.Start) {
				beforeRange = false
			}
			if !r.Contains(node.CreatedAt) {
				continue
			}
			repo := ""
			if node.BaseRepository != nil {
				repo = node.BaseRepository.NameWithOwner
			}
			prs = append(prs, domain.PullRequest{
				ID:        node.ID,
				CreatedAt: node.CreatedAt,
				Additions: node.Additions,
				Deletions: node.Deletions,
				Repo:      repo,
			})
		}
		if beforeRange {
			pager.Stop()
		}
	}
	s.logger.WithField("count", len(prs)).Debug("collected in-range pull requests")
	return prs, nil
}

// mapNotFound converts a NOT_FOUND semantic error into ErrSubjectNotFound.
func mapNotFound(err error, login string) error {
	var sem *SemanticError
	if errors.As(err, &sem) && sem.HasType("NOT_FOUND") {
		return fmt.Errorf("%w: %s", ErrSubjectNotFound, login)
	}
	return err
}
