package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/licenca-shop/licenca/internal/redisx"
)

// Cache is a tagged response cache. Every entry is registered under one or
// more tag sets so a write can drop all entries for a tag without scanning
// the keyspace.
type Cache struct {
	RDB *redis.Client
	Log *logrus.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func (c *Cache) Hits() int64   { return c.hits.Load() }
func (c *Cache) Misses() int64 { return c.misses.Load() }

// GetJSON loads key into out. Returns false on miss; a Redis failure is
// treated as a miss so reads always fall back to the source query.
func (c *Cache) GetJSON(ctx context.Context, key string, out any) bool {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(redisx.KeyCache, key)).Bytes()
	if err != nil {
		if err != redis.Nil && c.Log != nil {
			c.Log.WithError(err).Debug("cache get failed")
		}
		c.misses.Add(1)
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration, tags ...string) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	full := fmt.Sprintf(redisx.KeyCache, key)
	pipe := c.RDB.TxPipeline()
	pipe.Set(ctx, full, b, ttl)
	for _, t := range tags {
		tagKey := fmt.Sprintf(redisx.KeyCacheTag, t)
		pipe.SAdd(ctx, tagKey, full)
		// tag set outlives entries slightly so stale members get re-deleted
		pipe.Expire(ctx, tagKey, ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil && c.Log != nil {
		c.Log.WithError(err).Debug("cache set failed")
	}
}

// Invalidate drops every entry registered under the tag.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) {
	for _, t := range tags {
		tagKey := fmt.Sprintf(redisx.KeyCacheTag, t)
		members, err := c.RDB.SMembers(ctx, tagKey).Result()
		if err != nil {
			if c.Log != nil {
				c.Log.WithError(err).Debug("cache invalidate failed")
			}
			continue
		}
		if len(members) > 0 {
			_ = c.RDB.Del(ctx, members...).Err()
		}
		_ = c.RDB.Del(ctx, tagKey).Err()
	}
}
