package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

const redisKeyPrefix = "ghsummary:report:"

// RedisCache is a TTL'd ReportCache on Redis, for deployments where
// multiple bot instances share one cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// ConnectRedis opens and pings a Redis client from a URL.
func ConnectRedis(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Get returns the cached report, if present and not expired.
func (c *RedisCache) Get(ctx context.Context, subject, rangeKey string) (domain.CachedReport, bool, error) {
	raw, err := c.client.Get(ctx, reportKey(subject, rangeKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CachedReport{}, false, nil
	}
	if err != nil {
		return domain.CachedReport{}, false, fmt.Errorf("failed to read cached report: %w", err)
	}
	var report domain.CachedReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.CachedReport{}, false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return report, true, nil
}

// Put stores the report under (subject, rangeKey) with the configured TTL.
// SET is atomic, so readers see either the old record or the new one.
func (c *RedisCache) Put(ctx context.Context, subject, rangeKey string, stats domain.ContributionStats) (domain.CachedReport, error) {
	report := domain.CachedReport{CreatedAt: time.Now().UTC(), Stats: stats}
	raw, err := json.Marshal(report)
	if err != nil {
		return domain.CachedReport{}, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(subject, rangeKey), raw, c.ttl).Err(); err != nil {
		return domain.CachedReport{}, fmt.Errorf("failed to store report: %w", err)
	}
	return report, nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }

func reportKey(subject, rangeKey string) string {
	return redisKeyPrefix + subject + ":" + rangeKey
}
