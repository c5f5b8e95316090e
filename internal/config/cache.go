package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/autowire/pkg/cache"
	"github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/introspect"
)

// Cache backends selectable in the [cache] section.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNull   = "null"
)

// AppName names the per-user cache directory.
const AppName = "autowire"

// CacheConfig is the [cache] section of a wiring file.
type CacheConfig struct {
	Backend string `toml:"backend" yaml:"backend"`
	// TTL is the lifetime of a persisted signature store, in seconds.
	TTL    int    `toml:"ttl" yaml:"ttl"`
	Dir    string `toml:"dir" yaml:"dir"`
	Prefix string `toml:"prefix" yaml:"prefix"`

	RedisAddr     string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int    `toml:"redis_db" yaml:"redis_db"`

	MongoURI        string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database" yaml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection" yaml:"mongo_collection"`
}

func (c CacheConfig) validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendNull:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
	}
	if c.TTL <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"cache ttl must be positive, got %d (use backend %q to disable caching)", c.TTL, BackendNull)
	}
	return nil
}

// CacheDir returns the signature cache directory: Dir when set, otherwise
// $XDG_CACHE_HOME/autowire or ~/.cache/autowire.
func (c CacheConfig) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	return DefaultCacheDir()
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Open connects the configured backend. The caller owns the returned cache
// and must Close it.
func (c CacheConfig) Open(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendFile, "":
		dir, err := c.CacheDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache dir")
		}
		return cache.NewFileCache(dir)
	case BackendMemory:
		return cache.NewMemoryCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	case BackendMongo:
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        c.MongoURI,
			Database:   c.MongoDatabase,
			Collection: c.MongoCollection,
		})
	case BackendNull:
		return cache.NewNullCache(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Backend)
}

// Keyer returns the key scheme for the backend, scoped by Prefix when set.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// Pool wraps an opened backend in a signature pool.
func (c CacheConfig) Pool(backend cache.Cache) introspect.Pool {
	return introspect.NewCachePool(backend, c.Keyer())
}
