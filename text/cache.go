package text

import "sync"

// Cache is a generic LRU cache with a soft entry limit. When an insert
// pushes the cache past the limit, the least recently used quarter of
// the entries is dropped in one sweep. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*cacheSlot[V]
	limit   int
	tick    int64
}

type cacheSlot[V any] struct {
	value V
	used  int64
}

// NewCache creates a cache holding about limit entries. A limit of
// zero or less disables eviction.
func NewCache[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*cacheSlot[V]),
		limit:   limit,
	}
}

// Get returns the cached value and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	slot.used = c.tick
	return slot.value, true
}

// Set stores a value, evicting stale entries when over the limit.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	if slot, ok := c.entries[key]; ok {
		slot.value = value
		slot.used = c.tick
		return
	}
	c.entries[key] = &cacheSlot[V]{value: value, used: c.tick}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evictLocked()
	}
}

// Len returns the current entry count.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*cacheSlot[V])
}

// evictLocked removes the least recently used quarter of the entries.
// A full LRU list is not worth the bookkeeping at glyph-cache sizes.
func (c *Cache[K, V]) evictLocked() {
	drop := len(c.entries) / 4
	if drop < 1 {
		drop = 1
	}
	for i := 0; i < drop; i++ {
		var (
			oldestKey  K
			oldestUsed int64 = -1
		)
		for k, slot := range c.entries {
			if oldestUsed < 0 || slot.used < oldestUsed {
				oldestKey = k
				oldestUsed = slot.used
			}
		}
		if oldestUsed < 0 {
			return
		}
		delete(c.entries, oldestKey)
	}
}
