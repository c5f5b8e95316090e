package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autowire/pkg/dag"
	graphio "github.com/matzehuels/autowire/pkg/io"
	"github.com/matzehuels/autowire/pkg/observability"
	"github.com/matzehuels/autowire/pkg/render/nodelink"
)

// =============================================================================
// Construction Recorder
// =============================================================================

// graphRecorder builds a construction graph from resolver hooks.
type graphRecorder struct {
	mu     sync.Mutex
	g      *dag.DAG
	logger *log.Logger
}

func newGraphRecorder(logger *log.Logger) *graphRecorder {
	return &graphRecorder{g: dag.New(nil), logger: logger}
}

func (r *graphRecorder) OnResolveStart(_ context.Context, _ string, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.g.Meta()[nodelink.MetaRoot]; !ok {
		r.g.Meta()[nodelink.MetaRoot] = target
	}
}

func (r *graphRecorder) OnResolveComplete(context.Context, string, string, time.Duration, error) {}

func (r *graphRecorder) OnConstruct(_ context.Context, parent, child, via string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.g.EnsureNode(child)
	if err != nil {
		r.logger.Debug("graph: skip node", "typeId", child, "err", err)
		return
	}
	if via == observability.ViaNew {
		count, _ := n.Meta[nodelink.MetaCount].(int)
		n.Meta[nodelink.MetaCount] = count + 1
	}
	if parent == "" {
		return
	}
	if _, err := r.g.EnsureNode(parent); err != nil {
		r.logger.Debug("graph: skip node", "typeId", parent, "err", err)
		return
	}
	if r.g.HasEdge(parent, child) {
		return
	}
	if err := r.g.AddEdge(dag.Edge{From: parent, To: child, Meta: dag.Metadata{nodelink.MetaVia: via}}); err != nil {
		r.logger.Debug("graph: skip edge", "from", parent, "to", child, "err", err)
	}
}

// graph returns the recorded graph with rows assigned.
func (r *graphRecorder) graph() *dag.DAG {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.g.AssignRows()
	return r.g
}

// cacheCounter counts signature cache events.
type cacheCounter struct {
	hits, misses, sets atomic.Int64
}

func (c *cacheCounter) OnCacheHit(context.Context, string)      { c.hits.Add(1) }
func (c *cacheCounter) OnCacheMiss(context.Context, string)     { c.misses.Add(1) }
func (c *cacheCounter) OnCacheSet(context.Context, string, int) { c.sets.Add(1) }

// allCached reports whether every signature lookup hit the cache.
func (c *cacheCounter) allCached() bool {
	return c.hits.Load() > 0 && c.misses.Load() == 0
}

// trace runs fn with a graph recorder and a cache counter installed as the
// process hooks, restoring the previous hooks afterwards.
func trace(logger *log.Logger, fn func() error) (*graphRecorder, *cacheCounter, error) {
	rec, counter := newGraphRecorder(logger), &cacheCounter{}

	prevResolver, prevCache := observability.Resolver(), observability.Cache()
	observability.SetResolverHooks(rec)
	observability.SetCacheHooks(counter)
	defer func() {
		observability.SetResolverHooks(prevResolver)
		observability.SetCacheHooks(prevCache)
	}()

	err := fn()
	return rec, counter, err
}

// =============================================================================
// graph command
// =============================================================================

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		from     string
		detailed bool
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "graph <type>",
		Short: "Render the construction graph of a type",
		Long: `Resolve a type and render the graph of every value built for it.

Without --output the DOT source is written to stdout. An output path ending
in .dot writes DOT, .json writes the graph itself and .svg renders SVG with
Graphviz. --from re-renders a graph previously written as JSON instead of
resolving a type.`,
		Example: `  autowire graph demo.Service
  autowire graph demo.Service -o service.svg --detailed
  autowire graph demo.Service --set sender=ops@example.com -o service.json
  autowire graph --from service.json -o service.svg`,
		Args: func(cmd *cobra.Command, args []string) error {
			if from != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		ValidArgsFunction: completeTypeIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				g      *dag.DAG
				cached bool
			)
			if from != "" {
				imported, err := graphio.ImportJSON(from)
				if err != nil {
					return err
				}
				g = imported
			} else {
				overrides, err := parseOverrides(sets)
				if err != nil {
					return err
				}
				e, err := c.newEnv(ctx)
				if err != nil {
					return err
				}
				defer e.Close()

				rec, counter, err := trace(c.Logger, func() error {
					_, err := e.resolver.Resolve(ctx, args[0], overrides)
					return err
				})
				if err != nil {
					return err
				}
				g, cached = rec.graph(), counter.allCached()
			}

			if output == "" {
				fmt.Print(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed}))
				return nil
			}
			data, err := c.renderGraph(ctx, g, output, detailed)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			root, _ := g.Meta()[nodelink.MetaRoot].(string)
			printSuccess("Rendered %s", root)
			printFile(output)
			printStats(g.NodeCount(), g.EdgeCount(), cached)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot, .json or .svg)")
	cmd.Flags().StringVar(&from, "from", "", "render a graph exported as JSON")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include rows and build counts in node labels")
	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "argument override key=value (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("from", "set")

	return cmd
}

func (c *CLI) renderGraph(ctx context.Context, g *dag.DAG, output string, detailed bool) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".dot", ".gv":
		return []byte(nodelink.ToDOT(g, nodelink.Options{Detailed: detailed})), nil
	case ".json":
		var buf bytes.Buffer
		if err := graphio.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".svg":
		spinner := newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
		prog := newProgress(c.Logger)
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(g, nodelink.Options{Detailed: detailed}))
		spinner.Stop()
		if err != nil {
			return nil, err
		}
		prog.done("Rendered SVG")
		return svg, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want .dot, .json or .svg)", ext)
	}
}
