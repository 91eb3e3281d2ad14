package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/sentinel-nlq/pkg/cache"
	"github.com/kart-io/sentinel-nlq/pkg/utils/json"
)

const (
	DefaultCacheTTL     = 300 * time.Second
	DefaultCacheMaxSize = 1000
)

// ResultCache 查询结果缓存。实现必须保证存取的都是副本，调用方修改返回值不影响缓存。
type ResultCache interface {
	Get(ctx context.Context, key string) (*Response, bool)
	Set(ctx context.Context, key string, value *Response)
	Clear(ctx context.Context) error
}

// NormalizeKey trims and lowercases a query into its cache key.
func NormalizeKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// MemoryResultCache keeps results in a process-local LRU with TTL.
type MemoryResultCache struct {
	lru *cache.LRU[string, *Response]
}

var _ ResultCache = (*MemoryResultCache)(nil)

// NewMemoryResultCache creates an in-process cache. Non-positive arguments
// fall back to the defaults.
func NewMemoryResultCache(maxSize int, ttl time.Duration) *MemoryResultCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryResultCache{lru: cache.NewLRU[string, *Response](maxSize, ttl, nil)}
}

func (c *MemoryResultCache) Get(_ context.Context, key string) (*Response, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

func (c *MemoryResultCache) Set(_ context.Context, key string, value *Response) {
	c.lru.Set(key, value.Clone())
}

func (c *MemoryResultCache) Clear(context.Context) error {
	c.lru.Clear()
	return nil
}

// Len returns the number of live entries.
func (c *MemoryResultCache) Len() int {
	return c.lru.Len()
}

// RedisResultCache 使用 Redis 存储查询结果，多实例部署时共享。
// 只依赖 TTL 淘汰，不做容量上限。
type RedisResultCache struct {
	redis  goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ ResultCache = (*RedisResultCache)(nil)

// NewRedisResultCache creates a redis-backed cache under prefix.
func NewRedisResultCache(client goredis.UniversalClient, ttl time.Duration, prefix string) *RedisResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = "nlq:query:"
	}
	return &RedisResultCache{redis: client, ttl: ttl, prefix: prefix}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (*Response, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Warnw("Result cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warnw("Dropping corrupt cache entry", "key", key, "error", err)
		_ = c.redis.Del(ctx, c.prefix+key).Err()
		return nil, false
	}
	return &resp, true
}

func (c *RedisResultCache) Set(ctx context.Context, key string, value *Response) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warnw("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		logger.Warnw("Result cache write failed", "key", key, "error", err)
	}
}

// Clear removes every key under the cache prefix.
func (c *RedisResultCache) Clear(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}
