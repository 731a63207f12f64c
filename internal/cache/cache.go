// Package cache holds short-lived copies of rarely-changing query results,
// such as the home-page category shelves.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults
const (
	DefaultTTL      = 5 * time.Minute // Categories change only out-of-band
	CleanupInterval = 1 * time.Minute // Expired entry cleanup
)

// KeyShelf formats a shelf key: shelf:{category type}
const (
	KeyShelf    = shelfPrefix + "%s"
	shelfPrefix = "shelf:"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-memory key-value store with a single TTL for all entries.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	items   map[string]entry
	hits    atomic.Int64
	misses  atomic.Int64
	stopCh  chan struct{}
	stopped chan struct{}
}

// New creates a cache whose entries live for ttl (DefaultTTL when <= 0).
// A background goroutine evicts expired entries until Close is called.
func New(ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		items:   make(map[string]entry),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.janitor()
	return c, nil
}

func (c *Cache) janitor() {
	defer close(c.stopped)
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.evictBefore(now)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) evictBefore(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}

// Get returns the cached value, or (nil, false) on a miss or expired entry.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(e.expiresAt) {
		c.hits.Add(1)
		return e.value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores value under key. Values must not be mutated after Set.
func (c *Cache) Set(key string, value any) error {
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// ShelfKey returns the cache key for a category type's shelf.
func ShelfKey(categoryType string) string {
	return fmt.Sprintf(KeyShelf, categoryType)
}

func (c *Cache) invalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// InvalidateShelves drops all cached category shelves and returns how many
// were removed.
func (c *Cache) InvalidateShelves() int {
	return c.invalidatePrefix(shelfPrefix)
}

// Stats reports hit/miss counters for the metrics endpoint.
func (c *Cache) Stats() map[string]any {
	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	c.mu.RLock()
	keys := len(c.items)
	c.mu.RUnlock()

	return map[string]any{
		"hits":      hits,
		"misses":    misses,
		"hit_rate":  hitRate,
		"key_count": keys,
	}
}

// Close stops the janitor goroutine.
func (c *Cache) Close() error {
	close(c.stopCh)
	<-c.stopped
	return nil
}
