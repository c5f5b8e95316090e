package introspect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/autowire/pkg/cache"
)

// Pool stores cache items keyed by type identifier.
type Pool interface {
	// GetItem returns the item for key. A missing entry is an item that is
	// not a hit, never an error.
	GetItem(ctx context.Context, key string) (*Item, error)
	// Save persists item.
	Save(ctx context.Context, item *Item) error
}

// MemoryPool keeps items in process memory. Stores are kept by pointer, so
// mutations of a returned store are visible to later lookups.
type MemoryPool struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewMemoryPool creates an empty in-memory pool.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{items: make(map[string]*Item)}
}

// GetItem returns a copy of the item stored under key.
func (p *MemoryPool) GetItem(ctx context.Context, key string) (*Item, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	item, ok := p.items[key]
	if !ok {
		return NewItem(key), nil
	}
	cp := *item
	return &cp, nil
}

// Save stores item.
func (p *MemoryPool) Save(ctx context.Context, item *Item) error {
	cp := *item
	p.mu.Lock()
	p.items[item.Key()] = &cp
	p.mu.Unlock()
	return nil
}

// Len returns the number of stored items.
func (p *MemoryPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// CachePool stores items in a byte-level cache.Cache as JSON.
type CachePool struct {
	backend cache.Cache
	keyer   cache.Keyer
}

// NewCachePool creates a pool over backend. A nil keyer uses the default key
// layout.
func NewCachePool(backend cache.Cache, keyer cache.Keyer) *CachePool {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachePool{backend: backend, keyer: keyer}
}

type pooledItem struct {
	Store     *Store     `json:"store"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// GetItem loads and decodes the item stored under key. Undecodable entries
// are treated as misses.
func (p *CachePool) GetItem(ctx context.Context, key string) (*Item, error) {
	data, hit, err := p.backend.Get(ctx, p.keyer.SignatureKey(key))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if !hit {
		return NewItem(key), nil
	}

	var entry pooledItem
	if err := json.Unmarshal(data, &entry); err != nil || entry.Store == nil {
		return NewItem(key), nil
	}
	item := NewItem(key).Set(entry.Store)
	item.expires = entry.ExpiresAt
	return item, nil
}

// Save encodes item and writes it with a TTL matching its expiry. Items that
// have already expired or carry no value are removed instead.
func (p *CachePool) Save(ctx context.Context, item *Item) error {
	key := p.keyer.SignatureKey(item.Key())
	if !item.IsHit() {
		return p.backend.Delete(ctx, key)
	}

	var ttl time.Duration
	if item.expires != nil {
		ttl = item.expires.Sub(timeNow())
	}
	data, err := json.Marshal(pooledItem{Store: item.value, ExpiresAt: item.expires})
	if err != nil {
		return fmt.Errorf("encode %s: %w", item.Key(), err)
	}
	return p.backend.Set(ctx, key, data, ttl)
}

var (
	_ Pool = (*MemoryPool)(nil)
	_ Pool = (*CachePool)(nil)
)
