package query

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// responseCache provides thread-safe caching of forecast responses with
// TTL, so repeated dashboard polls within the freshness window do not
// re-read the ledger.
type responseCache struct {
	entries map[string]*cacheEntry
	mutex   sync.RWMutex
	ttl     time.Duration
	stopCh  chan struct{}
}

type cacheEntry struct {
	response  *Response
	timestamp time.Time
	hits      int64
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := &responseCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns a cached response if still fresh.
func (c *responseCache) Get(key string) *Response {
	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil
	}

	c.mutex.Lock()
	entry.hits++
	c.mutex.Unlock()
	return entry.response
}

// Set stores a response.
func (c *responseCache) Set(key string, resp *Response) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = &cacheEntry{
		response:  resp,
		timestamp: time.Now(),
	}
}

// Clear drops all entries. Called when the ledger gains new records.
func (c *responseCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *responseCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		age := now.Sub(entry.timestamp)
		if age > c.ttl {
			delete(c.entries, key)
			klog.V(4).InfoS("Removed expired forecast cache entry",
				"key", key,
				"age", age.String(),
				"hits", entry.hits)
		}
	}
}

// Close stops the cleanup goroutine.
func (c *responseCache) Close() {
	close(c.stopCh)
}
