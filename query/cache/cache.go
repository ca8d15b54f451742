// Package cache provides a bounded LRU cache used to memoize resolved model metadata.
package cache

import (
	"sync"
)

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRU is a fixed-capacity least-recently-used cache safe for concurrent use.
// A zero or negative capacity means unbounded.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]*node[K, V]
	maxSize int
	head    *node[K, V]
	tail    *node[K, V]
	stats   Stats
}

type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// NewLRU creates a new LRU cache holding at most maxSize entries.
func NewLRU[K comparable, V any](maxSize int) *LRU[K, V] {
	return &LRU[K, V]{
		data:    make(map[K]*node[K, V]),
		maxSize: maxSize,
		stats:   Stats{MaxSize: maxSize},
	}
}

// Get retrieves a value from the cache
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		c.updateHitRate()
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	c.stats.Hits++
	c.updateHitRate()
	return n.value, true
}

// Set stores a value in the cache, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.data[key]; exists {
		n.value = value
		c.moveToFront(n)
		return
	}

	if c.maxSize > 0 && len(c.data) >= c.maxSize {
		c.evictLRU()
		c.stats.Evictions++
	}

	n := &node[K, V]{key: key, value: value}
	c.addToFront(n)
	c.data[key] = n
	c.stats.Size = len(c.data)
}

// GetOrLoad returns the cached value for key, calling load and storing its result on a miss.
// Errors from load are returned as-is and nothing is cached.
func (c *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Invalidate removes a specific key from the cache
func (c *LRU[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.data[key]; ok {
		c.removeNode(n)
		c.stats.Size = len(c.data)
	}
}

// Clear removes all entries and resets statistics.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]*node[K, V])
	c.head = nil
	c.tail = nil
	c.stats = Stats{MaxSize: c.maxSize}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// GetStats returns cache statistics
func (c *LRU[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	return stats
}

// addToFront adds a node to the front of the list
func (c *LRU[K, V]) addToFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

// moveToFront moves a node to the front of the list
func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// removeNode unlinks a node and drops it from the index
func (c *LRU[K, V]) removeNode(n *node[K, V]) {
	c.unlink(n)
	delete(c.data, n.key)
}

// evictLRU evicts the least recently used node
func (c *LRU[K, V]) evictLRU() {
	if c.tail == nil {
		return
	}
	c.removeNode(c.tail)
}

// updateHitRate updates the hit rate statistic
func (c *LRU[K, V]) updateHitRate() {
	total := c.stats.Hits + c.stats.Misses
	if total > 0 {
		c.stats.HitRate = float64(c.stats.Hits) / float64(total) * 100
	}
}
