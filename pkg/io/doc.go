// Package io provides JSON import and export for construction graphs.
//
// # JSON Format
//
// A graph is an object with "nodes" and "edges" arrays and optional
// graph-level "meta":
//
//	{
//	  "meta": {"root": "demo.Service"},
//	  "nodes": [
//	    {"id": "demo.Service", "meta": {"count": 1}},
//	    {"id": "demo.Mailer", "row": 1, "meta": {"count": 1}},
//	    {"id": "demo.SystemClock", "row": 2}
//	  ],
//	  "edges": [
//	    {"from": "demo.Service", "to": "demo.Mailer", "meta": {"via": "new"}},
//	    {"from": "demo.Mailer", "to": "demo.SystemClock", "meta": {"via": "shared"}}
//	  ]
//	}
//
// Rows of zero are omitted on export. Metadata keys understood by the
// node-link renderer are listed in [nodelink].
//
// JSON numbers in metadata decode as float64, so a re-imported build count
// is a float64 rather than an int.
//
// # Usage
//
//	if err := io.ExportJSON(g, "service.json"); err != nil {
//	    return err
//	}
//	g, err := io.ImportJSON("service.json")
//
// [nodelink]: github.com/matzehuels/autowire/pkg/render/nodelink
package io
