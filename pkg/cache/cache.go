// Package cache provides byte-level key/value storage with expiry for
// persisted signature stores.
//
// Backends:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: process-local map, for tests and short-lived tools
//   - [RedisCache]: shared cache for multi-instance deployments
//   - [MongoCache]: durable document store with a TTL index
//   - [NullCache]: disables caching
//
// Keys are produced by a [Keyer] so that different callers (or tenants) can
// share one backend without collisions.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss (nil, false, nil) for absent or expired entries; errors
// are reserved for backend failures. A ttl of zero or less means the entry
// never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// SignatureKey returns the key under which the signature store of a
	// type is persisted.
	SignatureKey(typeID string) string
}

// DefaultKeyer produces keys of the form "signature:<typeID>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SignatureKey implements Keyer.
func (DefaultKeyer) SignatureKey(typeID string) string {
	return "signature:" + typeID
}
