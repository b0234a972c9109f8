package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "mercadito:rates:snapshot"

// RedisCache stores the assembled snapshot in redis with a TTL, so rate
// reads from every till do not hit the database on each request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs the cache. A nil client disables caching.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot if present and decodable.
func (c *RedisCache) Get(ctx context.Context) (*Snapshot, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false
	}
	return &snapshot, true
}

// Set stores the snapshot. Failures are ignored; the cache is best effort.
func (c *RedisCache) Set(ctx context.Context, snapshot *Snapshot) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, snapshotKey, raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot after a rate update.
func (c *RedisCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, snapshotKey).Err()
}
