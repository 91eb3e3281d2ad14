package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is a bounded cache that evicts the least recently touched entry and
// expires entries after a fixed TTL. Safe for concurrent use.
type LRU[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

var _ Cache[string, int] = (*LRU[string, int])(nil)

// NewLRU creates an LRU holding at most size entries, each living ttl.
// onEvict may be nil.
func NewLRU[K comparable, V any](size int, ttl time.Duration, onEvict func(K, V)) *LRU[K, V] {
	return &LRU[K, V]{lru: expirable.NewLRU[K, V](size, onEvict, ttl)}
}

// Set inserts or replaces key and restarts its TTL.
func (c *LRU[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Get returns the live value for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *LRU[K, V]) Del(key K) {
	c.lru.Remove(key)
}

func (c *LRU[K, V]) Len() int {
	return c.lru.Len()
}

// Keys returns live keys from oldest to newest.
func (c *LRU[K, V]) Keys() []K {
	return c.lru.Keys()
}

func (c *LRU[K, V]) Clear() {
	c.lru.Purge()
}

// Contains reports presence without touching recency.
func (c *LRU[K, V]) Contains(key K) bool {
	return c.lru.Contains(key)
}
