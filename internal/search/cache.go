package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopfra/catalogsync/internal/index"
)

const cacheKeyPrefix = "search:"

// ResultCache caches search results for identical queries. Lookups and
// stores are best effort: a cache failure never fails the search.
type ResultCache interface {
	Get(ctx context.Context, key string) (*index.Result, bool)
	Set(ctx context.Context, key string, result *index.Result)
}

// RedisCache implements ResultCache on Redis with a short TTL. Cached
// results age within the same staleness window the index itself has, so a
// hit is no more stale than a live query.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed result cache with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached result. A miss or any Redis error returns false.
func (c *RedisCache) Get(ctx context.Context, key string) (*index.Result, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var result index.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}

	return &result, true
}

// Set stores a result under the given key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, result *index.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	c.client.Set(ctx, key, data, c.ttl)
}

// cacheKey derives a stable key from the full query shape.
func cacheKey(query *index.Query) string {
	data, err := json.Marshal(query)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s%x", cacheKeyPrefix, sha256.Sum256(data))
}
