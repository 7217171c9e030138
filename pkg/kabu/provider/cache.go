package provider

import (
	"sync"
	"time"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// DefaultCacheTTL is how long a successful fetch is reused.
const DefaultCacheTTL = 10 * time.Minute

// Cache holds successful outcomes keyed by symbol for TTL.
// A Cache belongs to one session and is dropped with it.
type Cache struct {
	ttl  time.Duration
	size int // 0 = unbounded

	// Now is the clock; tests replace it.
	Now func() time.Time

	mu    sync.Mutex
	items map[string]cacheEntry
	order []string // LRU order, oldest at index 0
}

type cacheEntry struct {
	at  time.Time
	out types.Outcome
}

// NewCache returns an empty cache. A non-positive ttl uses DefaultCacheTTL.
func NewCache(ttl time.Duration, size int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl, size: size, items: make(map[string]cacheEntry)}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached outcome for sym if it is still fresh.
func (c *Cache) Get(sym string) (types.Outcome, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.items[sym]
	if !ok {
		return types.Outcome{}, false
	}
	if now.Sub(ent.at) >= c.ttl {
		delete(c.items, sym)
		c.removeFromOrderLocked(sym)
		return types.Outcome{}, false
	}
	c.touchLocked(sym)
	return ent.out, true
}

// Put stores a successful outcome. Failures are ignored so they are retried next time.
func (c *Cache) Put(out types.Outcome) {
	if !out.OK() || out.Symbol == "" {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[out.Symbol]; ok {
		c.removeFromOrderLocked(out.Symbol)
	}
	c.items[out.Symbol] = cacheEntry{at: now, out: out}
	c.order = append(c.order, out.Symbol)
	for c.size > 0 && len(c.items) > c.size && len(c.order) > 0 {
		old := c.order[0]
		c.order = c.order[1:]
		delete(c.items, old)
	}
}

// Len reports the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheEntry)
	c.order = nil
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cache) touchLocked(k string) {
	c.removeFromOrderLocked(k)
	c.order = append(c.order, k)
}

func (c *Cache) removeFromOrderLocked(k string) {
	for i, v := range c.order {
		if v == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
