package wishlist

import (
	"context"
	"time"

	"github.com/wishlify/wishlify-backend/pkg/logger"
	"github.com/wishlify/wishlify-backend/pkg/redis"
)

// Lookup is the read contract the redirect resolver consumes.
type Lookup interface {
	ProductURL(ctx context.Context, wishlistID, wishID string) (string, error)
}

// Cache is the slice of the redis client the read-through cache needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	WishURLKey(wishlistID, wishID string) string
}

// CachedLookup fronts a Lookup with Redis. Only non-empty urls are cached, so a
// wish that gains a link shows up on the next request. Cache errors are logged and
// the request falls through to the source.
type CachedLookup struct {
	source Lookup
	cache  Cache
	ttl    time.Duration
	logg   *logger.Logger
}

func NewCachedLookup(source Lookup, cache Cache, ttl time.Duration, logg *logger.Logger) *CachedLookup {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedLookup{source: source, cache: cache, ttl: ttl, logg: logg}
}

func (c *CachedLookup) ProductURL(ctx context.Context, wishlistID, wishID string) (string, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.source.ProductURL(ctx, wishlistID, wishID)
	}

	key := c.cache.WishURLKey(wishlistID, wishID)
	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil && cached != "":
		return cached, nil
	case err != nil && !redis.IsMiss(err):
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "wishlist.cache_read_failed")
	}

	productURL, err := c.source.ProductURL(ctx, wishlistID, wishID)
	if err != nil || productURL == "" {
		return productURL, err
	}

	if err := c.cache.Set(ctx, key, productURL, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "wishlist.cache_write_failed")
	}
	return productURL, nil
}
