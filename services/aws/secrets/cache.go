package secrets

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value      string
	expiration time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// InMemoryCache is a TTL cache of secret values, safe for concurrent use.
type InMemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxSize    int
	defaultTTL time.Duration
}

// NewInMemoryCache returns a cache with the given default TTL. A maxSize of
// zero means unlimited.
func NewInMemoryCache(defaultTTL time.Duration, maxSize int) *InMemoryCache {
	return &InMemoryCache{
		entries:    make(map[string]*cacheEntry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Get returns the value of key when present and not expired.
func (c *InMemoryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if entry.isExpired(time.Now()) {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

// Set stores value under key. A zero ttl uses the default; when the cache
// is full the entry closest to expiry is evicted.
func (c *InMemoryCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.expiration.Before(oldest) {
				oldestKey, oldest = k, e.expiration
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[key] = &cacheEntry{value: value, expiration: time.Now().Add(ttl)}
}

// Delete removes key.
func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Size returns the number of live entries.
func (c *InMemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}
