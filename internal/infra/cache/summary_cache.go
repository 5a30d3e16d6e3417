package cache

import (
	"context"
	"encoding/json"
	"time"

	"birthday_notifier/internal/app"

	"github.com/redis/go-redis/v9"
)

// RedisSummaryCache caches dashboard summaries per calendar day. Entries are
// short-lived and invalidated after any cycle that sent mail, so the
// dashboard lags the store by at most the TTL.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{
		client: client,
		ttl:    ttl,
	}
}

func summaryKey(day time.Time) string {
	return "summary:" + day.Format("2006-01-02")
}

func (c *RedisSummaryCache) Get(ctx context.Context, day time.Time) (*app.Summary, bool) {
	data, err := c.client.Get(ctx, summaryKey(day)).Result()
	if err != nil {
		return nil, false
	}

	var sum app.Summary
	if err := json.Unmarshal([]byte(data), &sum); err != nil {
		return nil, false
	}
	return &sum, true
}

func (c *RedisSummaryCache) Set(ctx context.Context, day time.Time, sum *app.Summary) {
	data, err := json.Marshal(sum)
	if err != nil {
		return
	}
	c.client.Set(ctx, summaryKey(day), data, c.ttl)
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, day time.Time) {
	c.client.Del(ctx, summaryKey(day))
}
