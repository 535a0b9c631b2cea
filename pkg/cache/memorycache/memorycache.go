// Package memorycache provides an in-process LRU cache with TTL.
package memorycache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asakaida/monban/pkg/cache"
)

// entry is one cached key/value pair with its expiry.
type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

// Cache implements cache.Cache with a bounded number of entries.
// When the bound is reached the least recently used entry is evicted.
type Cache struct {
	mu sync.Mutex

	items     map[string]*list.Element
	evictList *list.List // front = most recently used

	maxEntries int
	ttl        time.Duration

	// Metrics counters; nil when metrics are disabled
	metrics *counters
}

type counters struct {
	hits        uint64
	misses      uint64
	keysAdded   uint64
	keysEvicted uint64
}

// Config holds configuration for the memory cache.
type Config struct {
	// MaxEntries is the maximum number of cached items.
	// When exceeded, least recently used items are evicted.
	MaxEntries int

	// DefaultTTL is the time-to-live used when Set is called with a
	// zero TTL.
	DefaultTTL time.Duration

	// EnableMetrics enables collection of cache metrics.
	EnableMetrics bool
}

// New creates a new memory cache with the given configuration.
func New(config *Config) (*Cache, error) {
	if config.MaxEntries <= 0 {
		return nil, fmt.Errorf("max entries must be positive")
	}

	c := &Cache{
		items:      make(map[string]*list.Element),
		evictList:  list.New(),
		maxEntries: config.MaxEntries,
		ttl:        config.DefaultTTL,
	}
	if config.EnableMetrics {
		c.metrics = &counters{}
	}
	return c, nil
}

// Get retrieves a value from cache. Expired entries count as misses
// and are removed on access.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.miss()
		return nil, false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.miss()
		return nil, false
	}

	c.evictList.MoveToFront(elem)
	c.hit()
	return ent.value, true
}

// Set stores a value in cache. A zero ttl falls back to the default.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		c.evictList.MoveToFront(elem)
		return nil
	}

	elem := c.evictList.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
	if c.metrics != nil {
		atomic.AddUint64(&c.metrics.keysAdded, 1)
	}

	for c.evictList.Len() > c.maxEntries {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		if c.metrics != nil {
			atomic.AddUint64(&c.metrics.keysEvicted, 1)
		}
	}
	return nil
}

// Delete removes a value from cache. Deleting an absent key is a no-op.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	return nil
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close releases resources held by the cache.
func (c *Cache) Close() error {
	return c.Clear(context.Background())
}

// Metrics returns a snapshot of cache statistics.
// Returns zero values when metrics are disabled.
func (c *Cache) Metrics() *cache.Metrics {
	if c.metrics == nil {
		return &cache.Metrics{}
	}
	return &cache.Metrics{
		Hits:        atomic.LoadUint64(&c.metrics.hits),
		Misses:      atomic.LoadUint64(&c.metrics.misses),
		KeysAdded:   atomic.LoadUint64(&c.metrics.keysAdded),
		KeysEvicted: atomic.LoadUint64(&c.metrics.keysEvicted),
	}
}

func (c *Cache) hit() {
	if c.metrics != nil {
		atomic.AddUint64(&c.metrics.hits, 1)
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		atomic.AddUint64(&c.metrics.misses, 1)
	}
}

// removeElement removes an element; callers must hold the lock.
func (c *Cache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}

var _ cache.Cache = (*Cache)(nil)
