package storage

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

type memoryEntry struct {
	report    domain.CachedReport
	expiresAt time.Time
}

// MemoryCache is a TTL'd LRU ReportCache for single-process runs where no
// external store is configured.
type MemoryCache struct {
	mu     sync.Mutex
	lru    *lru.Cache[string, memoryEntry]
	ttl    time.Duration
	nextID int64
	now    func() time.Time
}

// NewMemoryCache builds a cache holding at most size reports.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	l, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: l, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached report, if present and not expired.
func (c *MemoryCache) Get(_ context.Context, subject, rangeKey string) (domain.CachedReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Get(reportKey(subject, rangeKey))
	if !ok || c.now().After(entry.expiresAt) {
		return domain.CachedReport{}, false, nil
	}
	return entry.report, true, nil
}

// Put stores the report, superseding any previous entry for the key.
func (c *MemoryCache) Put(_ context.Context, subject, rangeKey string, stats domain.ContributionStats) (domain.CachedReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	report := domain.CachedReport{
		ID:        c.nextID,
		CreatedAt: c.now().UTC(),
		Stats:     stats,
	}
	c.lru.Add(reportKey(subject, rangeKey), memoryEntry{
		report:    report,
		expiresAt: c.now().Add(c.ttl),
	})
	return report, nil
}
