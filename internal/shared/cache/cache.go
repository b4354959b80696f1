package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a TTL cache with a bounded size. Implementations evict the
// oldest-inserted entry on overflow and expire entries lazily on read.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Len() int
}

type entry struct {
	value     any
	expiresAt time.Time
}

type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string // insertion order, oldest first
	maxSize int
	now     func() time.Time
}

func NewTTLCache(maxSize int) *TTLCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &TTLCache{
		entries: make(map[string]entry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expiresAt.Before(c.now()) {
		c.deleteLocked(key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxSize && len(c.order) > 0 {
			c.deleteLocked(c.order[0])
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup drops every expired entry. Normally driven by RunJanitor.
func (c *TTLCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if e.expiresAt.Before(now) {
			c.deleteLocked(key)
		}
	}
}

// RunJanitor sweeps expired entries until ctx is cancelled.
func (c *TTLCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

func (c *TTLCache) deleteLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
