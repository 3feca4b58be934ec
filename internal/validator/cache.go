package validator

import (
	"sync"
	"time"
)

// resultCache memoizes validation results per (source, target) pair with a
// fixed TTL. The cache is an optimization only: entries may be recomputed
// redundantly under concurrency without affecting correctness.
type resultCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[pairKey]cacheEntry
}

type pairKey struct {
	source string
	target string
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[pairKey]cacheEntry),
	}
}

func (c *resultCache) get(source, target string) (*Result, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[pairKey{source, target}]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(source, target string, res *Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[pairKey{source, target}] = cacheEntry{
		result:    res,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}
