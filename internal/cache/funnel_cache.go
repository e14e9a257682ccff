// backend-go/internal/cache/funnel_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerpulse/backend-go/internal/config"
	"github.com/sellerpulse/backend-go/internal/domain"
)

const funnelKeyPrefix = "funnel:report"

// FunnelCache short-circuits repeated funnel report requests for the
// same period. The report is recomputed from live metrics, so a short
// TTL is all that is wanted.
type FunnelCache interface {
	Get(ctx context.Context, days int) ([]domain.FunnelRow, bool, error)
	Set(ctx context.Context, days int, rows []domain.FunnelRow) error
	Invalidate(ctx context.Context, days int) error
}

type redisFunnelCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopFunnelCache struct{}

// NewFunnelCache returns a redis-backed cache, or a noop one when
// caching is disabled.
func NewFunnelCache(cfg config.CacheConfig) (FunnelCache, error) {
	if !cfg.Enabled {
		return &noopFunnelCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisFunnelCache{client: client, ttl: ttl}, nil
}

func NewNoopFunnelCache() FunnelCache {
	return &noopFunnelCache{}
}

func funnelKey(days int) string {
	return fmt.Sprintf("%s:%d", funnelKeyPrefix, days)
}

func (c *redisFunnelCache) Get(ctx context.Context, days int) ([]domain.FunnelRow, bool, error) {
	payload, err := c.client.Get(ctx, funnelKey(days)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rows []domain.FunnelRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode funnel cache: %w", err)
	}
	return rows, true, nil
}

func (c *redisFunnelCache) Set(ctx context.Context, days int, rows []domain.FunnelRow) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode funnel cache: %w", err)
	}
	if err := c.client.Set(ctx, funnelKey(days), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisFunnelCache) Invalidate(ctx context.Context, days int) error {
	return c.client.Del(ctx, funnelKey(days)).Err()
}

func (n *noopFunnelCache) Get(ctx context.Context, days int) ([]domain.FunnelRow, bool, error) {
	return nil, false, nil
}

func (n *noopFunnelCache) Set(ctx context.Context, days int, rows []domain.FunnelRow) error {
	return nil
}

func (n *noopFunnelCache) Invalidate(ctx context.Context, days int) error {
	return nil
}
