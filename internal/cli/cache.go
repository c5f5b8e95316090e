package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autowire/internal/config"
	"github.com/matzehuels/autowire/pkg/cache"
	"github.com/matzehuels/autowire/pkg/introspect"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the signature cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheWarmCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.backend == nil {
				printInfo("Cache is disabled")
				return nil
			}

			if fc, ok := e.backend.(*cache.FileCache); ok {
				count, err := fc.Clear()
				if err != nil {
					return fmt.Errorf("clear %s: %w", fc.Dir(), err)
				}
				printSuccess("Cleared %d cached entries", count)
				printDetail("Directory: %s", fc.Dir())
				return nil
			}

			keyer := e.cfg.Cache.Keyer()
			for _, id := range e.catalog.IDs() {
				if err := e.backend.Delete(ctx, keyer.SignatureKey(id)); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
			}
			printSuccess("Cleared signatures of %d types", len(e.catalog.IDs()))
			printDetail("Backend: %s", e.cfg.Cache.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where signatures are cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.BackendFile:
				dir, err := cfg.Cache.CacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Println(dir)
			case config.BackendRedis:
				printKeyValue("redis", cfg.Cache.RedisAddr)
			case config.BackendMongo:
				printKeyValue("mongo", cfg.Cache.MongoURI)
			default:
				printKeyValue("backend", cfg.Cache.Backend)
			}
			return nil
		},
	}
}

// cacheWarmCommand creates the "cache warm" subcommand.
func (c *CLI) cacheWarmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Reflect every catalog constructor into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.cached == nil {
				printWarning("Cache is disabled; nothing to warm")
				return nil
			}

			spinner := newSpinnerWithContext(ctx, "Reflecting signatures...")
			spinner.Start()
			prog := newProgress(c.Logger)
			warmed, skipped, err := warm(ctx, e.catalog, e.cached, func(id string) {
				spinner.SetMessage("Reflecting " + id)
			})
			if err != nil {
				spinner.StopWithError(err.Error())
				return err
			}
			spinner.Stop()
			prog.done(fmt.Sprintf("Warmed %d types", warmed))

			printSuccess("Cached %d signatures", warmed)
			if skipped > 0 {
				printDetail("%d abstract types skipped", skipped)
			}
			return nil
		},
	}
}

// warm loads the constructor signature of every concrete catalog type
// through in, so that later lookups are served from its cache. visit, when
// non-nil, is called before each type is reflected.
func warm(ctx context.Context, catalog *introspect.Catalog, in introspect.Introspector, visit func(id string)) (warmed, skipped int, err error) {
	for _, id := range catalog.IDs() {
		t, ok := catalog.Lookup(id)
		if !ok || t.Abstract() {
			skipped++
			continue
		}
		if visit != nil {
			visit(id)
		}
		if _, err := in.Signature(ctx, id, introspect.Constructor); err != nil {
			return warmed, skipped, fmt.Errorf("warm %s: %w", id, err)
		}
		warmed++
	}
	return warmed, skipped, nil
}
