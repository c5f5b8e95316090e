package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/autowire/pkg/dag"
)

// ReadJSON decodes a JSON graph from r into a DAG.
//
// The input must be a JSON object with "nodes" and "edges" arrays and an
// optional "meta" object:
//
//	{
//	  "meta": {"root": "demo.Service"},
//	  "nodes": [{"id": "demo.Service"}, {"id": "demo.Mailer", "row": 1}],
//	  "edges": [{"from": "demo.Service", "to": "demo.Mailer", "meta": {"via": "new"}}]
//	}
//
// When no node carries a row, rows are assigned with [dag.DAG.AssignRows].
// ReadJSON returns an error if the JSON is malformed, a node id is empty or
// duplicated, an edge references an unknown node, or the edges form a
// cycle. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(data.Meta)
	hasRows := false
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		if n.Row != nil {
			nd.Row = *n.Row
			hasRows = true
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To, Meta: e.Meta}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !hasRows {
		g.AssignRows()
	}

	return g, nil
}

// ImportJSON reads a JSON file at path and returns the decoded DAG.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
