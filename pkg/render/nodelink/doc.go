// Package nodelink renders construction graphs as node-link diagrams.
//
// Convert a [dag.DAG] to DOT, then render to SVG with the in-process
// Graphviz runtime from [github.com/goccy/go-graphviz]:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be written out and processed with external
// Graphviz tools. Layout is top-to-bottom (rankdir=TB), so a requested
// type sits above the values it was built from.
package nodelink
