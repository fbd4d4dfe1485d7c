// Package memory provides in-process cache and session storage backed by
// ristretto. It is used when Valkey is not configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrCacheMiss is returned by Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// Cache implements ports.CacheService in memory.
type Cache struct {
	store *ristretto.Cache[string, []byte]
}

// NewCache creates a cache bounded to maxBytes of stored values.
func NewCache(maxBytes int64) (*Cache, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto cache: %w", err)
	}
	return &Cache{store: store}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

// Set stores a value with a TTL in seconds. Writes become visible once
// ristretto has applied its buffer; Set waits for that.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttlSeconds int) error {
	if !c.store.SetWithTTL(key, value, int64(len(value)), time.Duration(ttlSeconds)*time.Second) {
		return fmt.Errorf("cache set %s: rejected", key)
	}
	c.store.Wait()
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Del(key)
	return nil
}

// Ping always succeeds.
func (c *Cache) Ping(context.Context) error { return nil }

// Close releases the cache.
func (c *Cache) Close() {
	c.store.Close()
}
