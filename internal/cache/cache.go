// Package cache provides the response cache for computed results.
//
// Cached values are JSON-serialized and treated as immutable once written.
// The cache never participates in the computation itself; the algorithm is
// pure and cache-agnostic.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache defines the response cache interface.
type Cache interface {
	// Get unmarshals the cached value for key into dest. Returns
	// errors.ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores value under key for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// MakeKey joins parts into a cache key.
func MakeKey(parts ...string) string {
	return strings.Join(parts, ":")
}
