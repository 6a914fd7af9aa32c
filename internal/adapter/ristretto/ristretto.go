// Package ristretto provides a small in-process TTL cache used to memoize
// validated token claims on the gateway hot path.
package ristretto

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a typed wrapper around a ristretto cache. Values carry a fixed
// unit cost; sizing is by entry count, which fits small claim structs.
type Cache[V any] struct {
	c *ristretto.Cache[string, V]
}

// New creates a cache holding up to maxEntries values.
func New[V any](maxEntries int64) (*Cache[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c}, nil
}

// Get retrieves a value from the cache.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.c.Get(key)
}

// Set stores a value with the given TTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.c.SetWithTTL(key, value, 1, ttl)
}

// Delete removes a value.
func (c *Cache[V]) Delete(key string) {
	c.c.Del(key)
}

// Close shuts down the cache and releases resources.
func (c *Cache[V]) Close() {
	c.c.Close()
}
