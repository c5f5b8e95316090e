package introspect

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autowire/pkg/observability"
)

// DefaultTTL is the default lifetime of cached signature stores in seconds.
const DefaultTTL = 86400

// cacheKeyType labels cache hook events emitted by CachedReflector.
const cacheKeyType = "signature"

// CachedReflector memoizes signature stores in a Pool.
//
// Caching is per type, not per method: once a store is warm it answers every
// lookup for that type. Methods missing from a warm store are reflected and
// the enlarged store is saved again.
type CachedReflector struct {
	inner  *Reflector
	pool   Pool
	ttl    int
	logger *log.Logger
}

// NewCachedReflector wraps inner with a cache backed by pool. The TTL
// defaults to DefaultTTL seconds.
func NewCachedReflector(inner *Reflector, pool Pool, opts ...Option) *CachedReflector {
	o := buildOptions(opts)
	return &CachedReflector{inner: inner, pool: pool, ttl: o.ttl, logger: o.logger}
}

// Catalog returns the catalog of the wrapped reflector.
func (c *CachedReflector) Catalog() *Catalog {
	return c.inner.Catalog()
}

// TTL returns the lifetime of saved stores.
func (c *CachedReflector) TTL() time.Duration {
	return time.Duration(c.ttl) * time.Second
}

// Container returns the cached store of typeID when the pool holds a hit,
// and a new empty store otherwise. Default values of a cached store are
// converted back to their parameter types. Pool failures and stores whose
// defaults no longer fit their parameters are logged and treated as misses.
func (c *CachedReflector) Container(ctx context.Context, typeID string) (*Store, error) {
	item, err := c.pool.GetItem(ctx, typeID)
	switch {
	case err != nil:
		c.logger.Warn("signature cache lookup failed", "typeId", typeID, "err", err)
	case item.IsHit():
		store := item.Get()
		if err := c.inner.retype(store); err != nil {
			c.logger.Warn("discarding cached signature store", "typeId", typeID, "err", err)
			break
		}
		observability.Cache().OnCacheHit(ctx, cacheKeyType)
		c.logger.Debug("signature store from cache", "typeId", typeID)
		return store, nil
	}
	observability.Cache().OnCacheMiss(ctx, cacheKeyType)
	return c.inner.Container(ctx, typeID)
}

// Reflect reflects method into store and saves the whole store.
func (c *CachedReflector) Reflect(ctx context.Context, store *Store, method string) error {
	if err := c.inner.Reflect(ctx, store, method); err != nil {
		return err
	}

	c.logger.Debug("update signature cache", "typeId", store.TypeID, "methodName", method)
	expires := timeNow().Add(c.TTL())
	if err := c.pool.Save(ctx, NewStoredItem(store, &expires)); err != nil {
		c.logger.Warn("signature cache save failed", "typeId", store.TypeID, "err", err)
		return nil
	}
	size := 0
	if data, err := json.Marshal(store); err == nil {
		size = len(data)
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, size)
	return nil
}

// Signature returns the signature of method on typeID.
func (c *CachedReflector) Signature(ctx context.Context, typeID, method string) (Signature, error) {
	return signatureOf(ctx, c, typeID, method)
}

// CallableSignature returns the signature of a callable. Only static methods
// go through the cache.
func (c *CachedReflector) CallableSignature(ctx context.Context, cb Callable) (Signature, error) {
	return callableSignature(ctx, c, cb)
}

var (
	_ Introspector = (*Reflector)(nil)
	_ Introspector = (*CachedReflector)(nil)
)
