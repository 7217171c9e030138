package provider

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Cached serves fresh outcomes from Cache and coalesces concurrent fetches
// of the same symbol into one call to Next.
type Cached struct {
	Next  Provider
	Cache *Cache

	group singleflight.Group
}

// NewCached decorates next with cache.
func NewCached(next Provider, cache *Cache) *Cached {
	return &Cached{Next: next, Cache: cache}
}

func (c *Cached) Name() string { return c.Next.Name() }

func (c *Cached) Fetch(ctx context.Context, symbol string) types.Outcome {
	if c.Cache == nil {
		return c.Next.Fetch(ctx, symbol)
	}
	if out, ok := c.Cache.Get(symbol); ok {
		return out
	}
	v, _, _ := c.group.Do(symbol, func() (any, error) {
		if out, ok := c.Cache.Get(symbol); ok {
			return out, nil
		}
		// Shared by every waiter, so one caller going away must not fail the rest.
		out := c.Next.Fetch(context.WithoutCancel(ctx), symbol)
		c.Cache.Put(out)
		return out, nil
	})
	return v.(types.Outcome)
}
