// Package cache keeps rendered pages in memory between requests.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached rendering.
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// MemoryCache is an in-memory byte cache with TTL expiry and a background
// sweeper. Stop must be called to release the sweeper goroutine.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	done            chan struct{}
	stopOnce        sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every
// cleanupInterval (default: one minute).
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &MemoryCache{
		entries:         make(map[string]*Entry),
		now:             time.Now,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		done:            make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached bytes for key, if present and not expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.IsExpired(c.now()) {
		c.Invalidate(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data under key for ttl. The slice is kept, not copied.
func (c *MemoryCache) Set(key string, data []byte, ttl time.Duration) {
	entry := &Entry{Data: data, ExpiresAt: c.now().Add(ttl)}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Invalidate removes an entry from the cache
func (c *MemoryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll removes all entries from the cache
func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()
}

func (c *MemoryCache) cleanupLoop() {
	defer close(c.done)
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			delete(c.entries, key)
		}
	}
}

// Stop ends the sweeper and waits for it to exit. Safe to call multiple times.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
	<-c.done
}

// Len returns the number of entries in the cache
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
