package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     float64
	expiresAt time.Time
}

// SignalCache is an in-process TTL cache for raw signal measurements. Expired
// entries are dropped lazily on read and when the size limit is reached.
type SignalCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	maxItems int
	now      func() time.Time
}

func NewSignalCache(maxItems int) *SignalCache {
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &SignalCache{
		entries:  make(map[string]entry),
		maxItems: maxItems,
		now:      time.Now,
	}
}

func (c *SignalCache) Get(_ context.Context, key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return 0, false, nil
	}
	return e.value, true, nil
}

func (c *SignalCache) Set(_ context.Context, key string, value float64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxItems {
		c.evict(now)
	}
	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// evict drops expired entries, or the entry closest to expiry when none are.
func (c *SignalCache) evict(now time.Time) {
	oldestKey := ""
	var oldest time.Time
	removed := false
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed = true
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = key, e.expiresAt
		}
	}
	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
