// Package cache implements the engine's cache port on Redis.  The cache
// is strictly an optimization: every method swallows transport errors
// where the contract allows it, and a nil Redis client degrades to the
// no-op implementation so the service keeps working without Redis.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldpass/venue-booking/internal/engine"
)

// RedisCache implements engine.Cache on a Redis client.  All keys are
// namespaced under a configurable prefix.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	log    *slog.Logger
}

var _ engine.Cache = (*RedisCache)(nil)

// NewRedisCache returns a cache namespaced under prefix.  rdb must be
// non-nil; callers with no Redis connection should use NewNopCache.
func NewRedisCache(rdb *redis.Client, prefix string, log *slog.Logger) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{rdb: rdb, prefix: prefix, log: log}
}

func (c *RedisCache) key(k string) string { return c.prefix + ":" + k }

// Get returns the payload stored under key.  Any Redis error is treated
// as a miss so reads fall back to the authoritative store.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	bs, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Debug("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return bs, true
}

// Set stores the payload with a TTL.  Failures are logged and dropped;
// a lost write only costs a recomputation on the next read.
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := c.rdb.SetEx(ctx, c.key(key), payload, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", "key", key, "error", err)
	}
}

// InvalidateVenue deletes every availability entry derived from the
// venue by scanning the venue's key prefix.
func (c *RedisCache) InvalidateVenue(ctx context.Context, venueID uint64) error {
	return c.deleteByPrefix(ctx, c.key(engine.AvailabilityKeyPrefix(venueID)))
}

// InvalidateListings deletes the whole venue-listing cache.
func (c *RedisCache) InvalidateListings(ctx context.Context) error {
	return c.deleteByPrefix(ctx, c.key(engine.ListingKeyPrefix))
}

func (c *RedisCache) deleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	keys := make([]string, 0, 16)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// NopCache is the disabled-cache implementation: every read misses and
// every write succeeds silently.
type NopCache struct{}

var _ engine.Cache = NopCache{}

// NewNopCache returns the no-op cache.
func NewNopCache() NopCache { return NopCache{} }

func (NopCache) Get(context.Context, string) ([]byte, bool)              { return nil, false }
func (NopCache) Set(context.Context, string, []byte, time.Duration)      {}
func (NopCache) InvalidateVenue(context.Context, uint64) error           { return nil }
func (NopCache) InvalidateListings(context.Context) error                { return nil }
