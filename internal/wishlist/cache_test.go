package wishlist

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	urls  map[string]string
	err   error
	calls int
}

func (f *fakeSource) ProductURL(_ context.Context, wishlistID, wishID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.urls[wishlistID+"/"+wishID], nil
}

type fakeCache struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value.(string)
	f.lastTTL = ttl
	return nil
}

func (f *fakeCache) WishURLKey(wishlistID, wishID string) string {
	return "wl:wish_url:" + wishlistID + ":" + wishID
}

func TestCachedLookupReadThrough(t *testing.T) {
	source := &fakeSource{urls: map[string]string{"wl/w": "https://shop.test/item"}}
	cache := newFakeCache()
	lookup := NewCachedLookup(source, cache, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := lookup.ProductURL(ctx, "wl", "w")
		require.NoError(t, err)
		assert.Equal(t, "https://shop.test/item", got)
	}
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, time.Minute, cache.lastTTL)
	assert.Equal(t, "https://shop.test/item", cache.data["wl:wish_url:wl:w"])
}

func TestCachedLookupDoesNotCacheMisses(t *testing.T) {
	source := &fakeSource{urls: map[string]string{}}
	cache := newFakeCache()
	lookup := NewCachedLookup(source, cache, time.Minute, nil)

	for i := 0; i < 2; i++ {
		got, err := lookup.ProductURL(context.Background(), "wl", "missing")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 2, source.calls)
	assert.Empty(t, cache.data)
}

func TestCachedLookupDegradesOnCacheErrors(t *testing.T) {
	source := &fakeSource{urls: map[string]string{"wl/w": "https://shop.test/item"}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis: connection refused")
	cache.setErr = errors.New("redis: connection refused")
	lookup := NewCachedLookup(source, cache, time.Minute, nil)

	got, err := lookup.ProductURL(context.Background(), "wl", "w")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/item", got)
	assert.Equal(t, 1, source.calls)
}

func TestCachedLookupSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	lookup := NewCachedLookup(source, newFakeCache(), time.Minute, nil)

	_, err := lookup.ProductURL(context.Background(), "wl", "w")
	assert.EqualError(t, err, "db down")
}

func TestCachedLookupDisabled(t *testing.T) {
	source := &fakeSource{urls: map[string]string{"wl/w": "https://shop.test/item"}}
	lookup := NewCachedLookup(source, nil, time.Minute, nil)

	_, err := lookup.ProductURL(context.Background(), "wl", "w")
	require.NoError(t, err)
	_, err = lookup.ProductURL(context.Background(), "wl", "w")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}
