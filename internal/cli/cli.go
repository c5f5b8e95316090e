package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/autowire/internal/config"
	"github.com/matzehuels/autowire/internal/demo"
	"github.com/matzehuels/autowire/pkg/buildinfo"
	"github.com/matzehuels/autowire/pkg/cache"
	"github.com/matzehuels/autowire/pkg/inject"
	"github.com/matzehuels/autowire/pkg/introspect"
)

const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Autowire builds object graphs from constructor signatures",
		Long:         `Autowire resolves types from a catalog by reflecting their constructor signatures, caching the signatures, and building every dependency recursively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "wiring file (.toml, .yaml or .yml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "reflect signatures without the signature cache")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.invokeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Environment
// =============================================================================

// env is the wired resolver stack a command runs against.
type env struct {
	cfg      *config.Config
	backend  cache.Cache
	catalog  *introspect.Catalog
	cached   *introspect.CachedReflector
	resolver *inject.Resolver
}

// introspector returns the cached introspector, or the plain reflector when
// caching is disabled.
func (e *env) introspector() introspect.Introspector {
	return e.resolver.Introspector()
}

// Close releases the cache backend.
func (e *env) Close() error {
	if e.backend == nil {
		return nil
	}
	return e.backend.Close()
}

// newEnv loads the wiring file, opens the cache backend and builds a
// resolver over the demo catalog.
func (c *CLI) newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Backend = config.BackendNull
	}
	if cfg.Cache.Prefix == "" && (cfg.Cache.Backend == config.BackendRedis || cfg.Cache.Backend == config.BackendMongo) {
		cfg.Cache.Prefix = buildinfo.CacheScope()
	}

	e := &env{cfg: cfg, catalog: demo.Catalog()}
	reflector := introspect.NewReflector(e.catalog, introspect.WithLogger(c.Logger))

	var in introspect.Introspector = reflector
	if cfg.Cache.Backend != config.BackendNull {
		backend, err := cfg.Cache.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
		}
		e.backend = backend
		e.cached = introspect.NewCachedReflector(reflector, cfg.Cache.Pool(backend),
			introspect.WithLogger(c.Logger), introspect.WithTTL(cfg.Cache.TTL))
		in = e.cached
	}
	c.Logger.Debug("environment ready", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL, "config", c.configPath)

	e.resolver = inject.New(in, inject.WithLogger(c.Logger))
	demo.Wire(e.resolver)
	cfg.Apply(e.resolver)
	return e, nil
}

// =============================================================================
// Overrides
// =============================================================================

// parseOverrides turns "key=value" flags into resolver overrides. Values
// are decoded as YAML scalars, so "3" is an int and "true" a bool; keys
// starting with ":" name a type id to resolve.
func parseOverrides(pairs []string) (inject.Overrides, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(inject.Overrides, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid override %q (want key=value)", pair)
		}
		if strings.HasPrefix(key, ":") {
			overrides[key] = raw
			continue
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		overrides[key] = v
	}
	return overrides, nil
}
