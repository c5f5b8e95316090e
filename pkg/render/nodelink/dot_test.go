package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/autowire/pkg/dag"
)

func sampleGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(dag.Metadata{MetaRoot: "app.Service"})
	for _, id := range []string{"app.Service", "app.Logger", "app.Clock"} {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	edges := []dag.Edge{
		{From: "app.Service", To: "app.Logger", Meta: dag.Metadata{MetaVia: "new"}},
		{From: "app.Service", To: "app.Clock", Meta: dag.Metadata{MetaVia: "shared"}},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	g.AssignRows()
	n, _ := g.Node("app.Logger")
	n.Meta[MetaCount] = 2
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=TB;",
		`"app.Service" [label="app.Service", style="rounded,filled,bold", fillcolor=lightyellow];`,
		`"app.Logger" [label="app.Logger"];`,
		`"app.Service" -> "app.Logger";`,
		`"app.Service" -> "app.Clock" [style=dashed, label="shared"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Errorf("DOT not terminated:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(sampleGraph(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="app.Logger\nrow: 1\ncount: 2"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="app.Service\nrow: 0"`) {
		t.Errorf("root label missing:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites svg tag",
			in:   `<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`,
		},
		{
			name: "no viewBox",
			in:   `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
		{
			name: "zero size",
			in:   `<svg viewBox="0 0 0 0"></svg>`,
			want: `<svg viewBox="0 0 0 0"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}
