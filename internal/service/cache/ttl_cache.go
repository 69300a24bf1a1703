package cache

import (
	"context"
	"sync"
	"time"
)

// TTLCache keeps encoded responses in process. Expired entries are dropped
// lazily on read and swept when the cache grows past its limit.
type TTLCache struct {
	mu      sync.Mutex
	items   map[string]item
	limit   int
	nowFunc func() time.Time
}

type item struct {
	body    []byte
	expires time.Time // zero means no expiry
}

const defaultTTLCacheLimit = 1024

func NewTTLCache() *TTLCache {
	return &TTLCache{
		items:   make(map[string]item),
		limit:   defaultTTLCacheLimit,
		nowFunc: time.Now,
	}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if it.expired(c.nowFunc()) {
		delete(c.items, key)
		return nil, false, nil
	}
	return it.body, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.nowFunc()
	it := item{body: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expires = now.Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.limit {
		c.sweep(now)
	}
	c.items[key] = it
	return nil
}

// sweep removes expired entries; if none expired the whole cache is reset.
func (c *TTLCache) sweep(now time.Time) {
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
	if len(c.items) >= c.limit {
		c.items = make(map[string]item)
	}
}

func (it item) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}
