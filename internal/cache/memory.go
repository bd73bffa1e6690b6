package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"keylevels/internal/errors"
)

// MemoryCache implements Cache with an in-process map. Values are stored as
// JSON bytes so Get/Set semantics match the Redis backend exactly; expired
// entries are dropped lazily on access.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory response cache.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL == 0 {
		defaultTTL = 5 * time.Minute
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
	}
}

// Get unmarshals the cached value for key into dest.
func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return errors.ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.evictExpired(key, entry.expiresAt)
		return errors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return errors.NewCacheError("decode", key, err)
	}
	return nil
}

// evictExpired removes key only if it still holds the entry observed to be
// expired. A concurrent Set may have refreshed the key between the read and
// this write lock; a refreshed entry must survive.
func (c *MemoryCache) evictExpired(key string, expiresAt time.Time) {
	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(expiresAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Set stores value under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("encode", key, err)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close is a no-op for the in-memory backend.
func (c *MemoryCache) Close() error {
	return nil
}
