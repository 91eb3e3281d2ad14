package cache

import "sync"

// MemoryCache is a map-backed Store guarded by one RWMutex.
// Values should be treated as immutable snapshots: index entries are computed
// on Set, so mutating a stored value in place leaves its indexes stale.
type MemoryCache[K comparable, V any] struct {
	mu sync.RWMutex

	data       map[K]V
	extractors map[string]func(V) any
	// indexName -> indexValue -> keys
	indices map[string]map[any]map[K]struct{}
}

var _ Store[string, int] = (*MemoryCache[string, int])(nil)

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache[K comparable, V any]() *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		data:       make(map[K]V),
		extractors: make(map[string]func(V) any),
		indices:    make(map[string]map[any]map[K]struct{}),
	}
}

func (c *MemoryCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value)
}

func (c *MemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *MemoryCache[K, V]) Del(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.data[key]; ok {
		c.unindex(key, old)
		delete(c.data, key)
	}
}

func (c *MemoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

func (c *MemoryCache[K, V]) Values() []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	values := make([]V, 0, len(c.data))
	for _, v := range c.data {
		values = append(values, v)
	}
	return values
}

// Clear drops all data but keeps registered indexes.
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[K]V)
	for name := range c.extractors {
		c.indices[name] = make(map[any]map[K]struct{})
	}
}

func (c *MemoryCache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.data[key]
	return ok
}

// AddIndex registers an index and backfills it from existing data.
func (c *MemoryCache[K, V]) AddIndex(name string, extractor func(V) any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.extractors[name] = extractor
	c.indices[name] = make(map[any]map[K]struct{})
	for k, v := range c.data {
		c.link(name, extractor(v), k)
	}
}

func (c *MemoryCache[K, V]) Find(indexName string, indexValue any) ([]V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.extractors[indexName]; !ok {
		return nil, ErrIndexNotFound
	}
	keys := c.indices[indexName][indexValue]
	out := make([]V, 0, len(keys))
	for k := range keys {
		if v, ok := c.data[k]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *MemoryCache[K, V]) Filter(predicate func(V) bool) []V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []V
	for _, v := range c.data {
		if predicate(v) {
			out = append(out, v)
		}
	}
	return out
}

// 以下方法要求调用方已持有写锁

func (c *MemoryCache[K, V]) put(key K, value V) {
	if old, ok := c.data[key]; ok {
		c.unindex(key, old)
	}
	c.data[key] = value
	for name, extract := range c.extractors {
		c.link(name, extract(value), key)
	}
}

func (c *MemoryCache[K, V]) unindex(key K, value V) {
	for name, extract := range c.extractors {
		iv := extract(value)
		keys, ok := c.indices[name][iv]
		if !ok {
			continue
		}
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.indices[name], iv)
		}
	}
}

func (c *MemoryCache[K, V]) link(name string, iv any, key K) {
	index := c.indices[name]
	keys, ok := index[iv]
	if !ok {
		keys = make(map[K]struct{})
		index[iv] = keys
	}
	keys[key] = struct{}{}
}
