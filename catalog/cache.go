package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/user/foodgram-go/metrics"
)

// Cache keys. Only the unfiltered lists are cached; they are what every recipe form loads.
const (
	tagsCacheKey        = "catalog:tags"
	ingredientsCacheKey = "catalog:ingredients"
)

// Cache stores serialized catalog lists. Implementations must treat failures as misses:
// the database stays the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
}

// RedisCache keeps catalog lists in Redis so every API replica shares them.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a PING.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger zerolog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores value under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

// Delete drops keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("catalog cache invalidation failed")
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is the in-process fallback used when no Redis address is configured.
type MemoryCache struct {
	entries sync.Map // string -> memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

// Get returns the cached value for key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	entry := v.(memoryEntry)
	if c.now().After(entry.expires) {
		c.entries.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.entries.Store(key, memoryEntry{value: value, expires: c.now().Add(c.ttl)})
}

// Delete drops keys.
func (c *MemoryCache) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		c.entries.Delete(k)
	}
}

// loadCached decodes the JSON list cached under key. Undecodable entries are dropped.
func loadCached[T any](ctx context.Context, c Cache, key string) ([]T, bool) {
	data, ok := c.Get(ctx, key)
	metrics.RecordCacheLookup(key, ok)
	if !ok {
		return nil, false
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		c.Delete(ctx, key)
		return nil, false
	}
	return out, true
}

// storeCached serializes list into the cache under key.
func storeCached[T any](ctx context.Context, c Cache, key string, list []T) {
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	c.Set(ctx, key, data)
}
