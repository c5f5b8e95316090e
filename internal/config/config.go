// Package config loads autowire wiring files.
//
// A wiring file declares the signature cache backend, type aliases and
// per-type argument overrides. Files ending in .toml are decoded with
// BurntSushi/toml; .yaml and .yml files with yaml.v3:
//
//	[cache]
//	backend = "redis"
//	ttl = 3600
//	redis_addr = "localhost:6379"
//
//	[aliases]
//	"demo.Store" = "demo.MemoryStore"
//
//	[configure."demo.Mailer"]
//	sender = "noreply@example.com"
//
// Environment variables AUTOWIRE_CACHE_BACKEND and AUTOWIRE_CACHE_TTL take
// precedence over the file.
package config

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/inject"
	"github.com/matzehuels/autowire/pkg/introspect"
)

// Environment variables read by [Load].
const (
	EnvCacheBackend = "AUTOWIRE_CACHE_BACKEND"
	EnvCacheTTL     = "AUTOWIRE_CACHE_TTL"
)

// Supported file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Config is a decoded wiring file.
type Config struct {
	Cache     CacheConfig               `toml:"cache" yaml:"cache"`
	Aliases   map[string]string         `toml:"aliases" yaml:"aliases"`
	Configure map[string]map[string]any `toml:"configure" yaml:"configure"`
}

// Default returns the configuration used when no wiring file is given.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     introspect.DefaultTTL,
		},
	}
}

// Load reads the wiring file at path and applies environment overrides.
// An empty path yields [Default] with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		format, err := FormatOf(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if cfg, err = Parse(data, format); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// FormatOf picks the decoder for a wiring file by its extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unsupported wiring file %q (want .toml, .yaml or .yml)", path)
}

// Parse decodes a wiring file in the given format on top of [Default].
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.Decode(string(data), cfg)
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", format)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvCacheBackend); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv(EnvCacheTTL); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", EnvCacheTTL)
		}
		c.Cache.TTL = ttl
	}
	return nil
}

// Validate checks backend names, alias and configure type ids, and the
// override keys of every configure section.
func (c *Config) Validate() error {
	if err := c.Cache.validate(); err != nil {
		return err
	}
	for original, target := range c.Aliases {
		if err := errors.ValidateTypeID(original); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "alias %q", original)
		}
		if err := errors.ValidateTypeID(target); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "alias target %q", target)
		}
	}
	for typeID, values := range c.Configure {
		if err := errors.ValidateTypeID(typeID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "configure %q", typeID)
		}
		for key := range values {
			if err := errors.ValidateOverrideKey(key); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "configure %q", typeID)
			}
		}
	}
	return nil
}

// Apply registers the aliases and configure sections with r, in sorted
// order so that logs are stable.
func (c *Config) Apply(r *inject.Resolver) {
	for _, original := range slices.Sorted(maps.Keys(c.Aliases)) {
		r.Alias(original, c.Aliases[original])
	}
	for _, typeID := range slices.Sorted(maps.Keys(c.Configure)) {
		r.Configure(typeID, inject.Overrides(c.Configure[typeID]))
	}
}
