// Package storage holds the report cache boundary and its adapters:
// a durable SQL store, a Redis store, and an in-process LRU.
package storage

import (
	"context"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

// ReportCache persists computed reports keyed by (subject, rangeKey).
// Put is an upsert: a later write for the same key supersedes the
// earlier one, and readers never observe a partially written record.
// A miss is reported through ok=false, never through an error.
type ReportCache interface {
	Get(ctx context.Context, subject, rangeKey string) (report domain.CachedReport, ok bool, err error)
	Put(ctx context.Context, subject, rangeKey string, stats domain.ContributionStats) (domain.CachedReport, error)
}

// SubjectStore remembers which GitHub login a caller last asked about.
// Convenience bookkeeping only; nothing in the aggregation depends on it.
type SubjectStore interface {
	Remember(ctx context.Context, callerID int64, subject string) error
	Recall(ctx context.Context, callerID int64) (subject string, ok bool, err error)
}
