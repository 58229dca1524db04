package utils

import (
	"sync"
	"time"
)

// KeyCache memoizes string normalizations (wordlist and lemma keys are
// normalized once per distinct input).
type KeyCache struct {
	mu     sync.RWMutex
	items  map[string]CacheItem
	hits   int
	misses int
}

type CacheItem struct {
	value      string
	hits       int
	lastAccess time.Time
}

func NewKeyCache() *KeyCache {
	return &KeyCache{
		items:  make(map[string]CacheItem),
		hits:   0,
		misses: 0,
	}
}

// GetOrCompute returns the cached value for key, computing and storing it
// with fn on a miss.
func (c *KeyCache) GetOrCompute(key string, fn func(string) string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[key]; exists {
		c.hits += 1
		item.hits += 1
		item.lastAccess = time.Now()
		c.items[key] = item
		return item.value
	}

	c.misses += 1
	value := fn(key)
	c.items[key] = CacheItem{
		value:      value,
		lastAccess: time.Now(),
		hits:       0,
	}
	return value
}

func (c *KeyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *KeyCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hits+c.misses > 0 {
		return float64(c.hits) / float64(c.hits+c.misses)
	} else {
		return 0.0
	}
}
