// Package cache 提供泛型缓存：带 TTL 的 LRU 缓存与支持二级索引的内存存储。
package cache

import "errors"

// ErrIndexNotFound is returned when querying a non-existent index
var ErrIndexNotFound = errors.New("index not found")

// Cache is the basic key/value cache contract.
type Cache[K comparable, V any] interface {
	Set(key K, value V)
	Get(key K) (V, bool)
	Del(key K)
	Len() int
	Keys() []K
	Clear()
	Contains(key K) bool
}

// Store extends Cache with secondary indexes.
type Store[K comparable, V any] interface {
	Cache[K, V]

	// AddIndex registers a secondary index computed by extractor
	AddIndex(name string, extractor func(V) any)
	// Find returns every value whose index value equals indexValue
	Find(indexName string, indexValue any) ([]V, error)
	// Filter returns every value matching predicate
	Filter(predicate func(V) bool) []V
	Values() []V
}
