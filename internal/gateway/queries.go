package gateway

// Every query requests the rateLimit block so the transport can feed the
// tracker from the response itself, not just the headers.

const profileQuery = `
query($login: String!) {
  rateLimit { limit remaining used resetAt }
  user(login: $login) {
    id
    login
    followers { totalCount }
    following { totalCount }
    repositories(ownerAffiliations: OWNER) { totalCount }
    starredRepositories { totalCount }
    issues(states: [OPEN, CLOSED]) { totalCount }
    repositoryDiscussions { totalCount }
  }
}`

const calendarQuery = `
query($login: String!, $from: DateTime!, $to: DateTime!) {
  rateLimit { limit remaining used resetAt }
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      totalCommitContributions
      totalIssueContributions
      totalPullRequestContributions
      totalPullRequestReviewContributions
      totalRepositoriesWithContributedCommits
      totalRepositoriesWithContributedPullRequests
      totalRepositoriesWithContributedIssues
      restrictedContributionsCount
      commitContributionsByRepository(maxRepositories: 100) {
        repository {
          name
          owner { login }
          languages(first: 10, orderBy: {field: SIZE, direction: DESC}) {
            edges {
              size
              node { name }
            }
          }
        }
        contributions { totalCount }
      }
    }
  }
}`

const repoCommitsQuery = `
query($owner: String!, $repo: String!, $authorId: ID!, $since: GitTimestamp!, $until: GitTimestamp!, $cursor: String) {
  rateLimit { limit remaining used resetAt }
  repository(owner: $owner, name: $repo) {
    object(expression: "HEAD") {
      ... on Commit {
        history(first: 100, since: $since, until: $until, author: {id: $authorId}, after: $cursor) {
          pageInfo {
            hasNextPage
            endCursor
          }
          nodes {
            oid
            committedDate
            additions
            deletions
          }
        }
      }
    }
  }
}`

const pullRequestsQuery = `
query($login: String!, $cursor: String) {
  rateLimit { limit remaining used resetAt }
  user(login: $login) {
    pullRequests(first: 100, states: [OPEN, MERGED, CLOSED], after: $cursor, orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo {
        hasNextPage
        endCursor
      }
      nodes {
        id
        createdAt
        additions
        deletions
        baseRepository { nameWithOwner }
      }
    }
  }
}`
