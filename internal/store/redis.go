package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"madlib-engine/internal/common/config"
	"madlib-engine/internal/madlib"
)

// RecentCache keeps recently completed madlibs in Redis with a TTL.
type RecentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecentCache(cfg config.RedisConfig, ttl time.Duration) *RecentCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return &RecentCache{client: rdb, ttl: ttl}
}

// NewRecentCacheWithClient wraps an existing client (used by tests).
func NewRecentCacheWithClient(client *redis.Client, ttl time.Duration) *RecentCache {
	return &RecentCache{client: client, ttl: ttl}
}

func cacheKey(id string) string {
	return fmt.Sprintf("madlib:%s", id)
}

// Ping tests the cache connection.
func (c *RecentCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the cache connection.
func (c *RecentCache) Close() error {
	return c.client.Close()
}

// Put stores a completed madlib under the sink's identifier.
func (c *RecentCache) Put(ctx context.Context, id string, m *madlib.CompletedMadlib) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal madlib: %w", err)
	}
	return c.client.Set(ctx, cacheKey(id), data, c.ttl).Err()
}

// Get retrieves a cached madlib, or redis.Nil if it expired.
func (c *RecentCache) Get(ctx context.Context, id string) (*madlib.CompletedMadlib, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var m madlib.CompletedMadlib
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal madlib: %w", err)
	}
	return &m, nil
}
