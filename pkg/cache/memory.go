package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tramita-labs/expediente-engine/pkg/models"
)

// MemoryCache is an in-process ResultCache with TTL expiry and LRU
// eviction once the entry limit is reached.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration
}

type memoryEntry struct {
	result     *models.AnalyticsResult
	expiresAt  time.Time
	lastAccess time.Time
}

// NewMemoryCache creates a MemoryCache holding at most maxSize entries,
// each valid for ttl.
func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

var _ ResultCache = (*MemoryCache)(nil)

func (c *MemoryCache) Get(_ context.Context, key string) (*models.AnalyticsResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	entry.lastAccess = time.Now()
	return entry.result, true
}

func (c *MemoryCache) Set(_ context.Context, key string, result *models.AnalyticsResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	now := time.Now()
	c.entries[key] = &memoryEntry{
		result:     result,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// Len returns the number of live entries, expired ones included until
// their next lookup.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
