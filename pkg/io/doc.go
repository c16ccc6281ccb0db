// Package io provides JSON import and export for import graphs.
//
// # Overview
//
// A [depgraph.Graph] is serialized with its entries, files in discovery
// order, edges with the specifier that produced them, and the closing edge
// of each detected cycle. The format is used by "pcc graph --format json"
// and can be fed back into [ReadJSON] to render a graph again without
// re-parsing the project.
//
// # JSON Format
//
//	{
//	  "entries": ["/src/a.ts"],
//	  "files": [
//	    {"id": "/src/a.ts", "entry": true},
//	    {"id": "/src/b.ts", "importers": ["/src/a.ts"]}
//	  ],
//	  "edges": [
//	    {"from": "/src/a.ts", "to": "/src/b.ts", "specifier": "./b"}
//	  ],
//	  "cycles": [
//	    {"from": "/src/b.ts", "to": "/src/a.ts", "specifier": "./a"}
//	  ]
//	}
//
// The "importers" field is informational: it lists every file with a path
// to the file, ordered by discovery. [ReadJSON] recomputes it from the
// edges.
//
// # Validation
//
// [ReadJSON] rejects duplicate file ids and entries, edges or cycles that
// reference files not listed under "files". Duplicate edges and self edges
// are dropped silently.
package io
