package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pcc/pkg/depgraph"
)

// ReadJSON decodes a JSON import graph from r.
//
// Each edge and cycle must reference a file listed under "files", and each
// entry must be listed too. Importer sets in the input are ignored and
// recomputed from the edges. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*depgraph.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	known := make(map[string]bool, len(data.Files))
	for _, f := range data.Files {
		if f.ID == "" {
			return nil, fmt.Errorf("file with empty id")
		}
		if known[f.ID] {
			return nil, fmt.Errorf("file %s: duplicate id", f.ID)
		}
		known[f.ID] = true
	}

	entries := make([]depgraph.FileID, 0, len(data.Entries))
	for _, e := range data.Entries {
		if !known[e] {
			return nil, fmt.Errorf("entry %s: unknown file", e)
		}
		entries = append(entries, depgraph.FileID(e))
	}
	edges, err := decodeEdges(data.Edges, known)
	if err != nil {
		return nil, err
	}
	cycles, err := decodeEdges(data.Cycles, known)
	if err != nil {
		return nil, fmt.Errorf("cycle: %w", err)
	}
	return depgraph.Assemble(entries, edges, cycles), nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
func ImportJSON(path string) (*depgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func decodeEdges(in []edge, known map[string]bool) ([]depgraph.Edge, error) {
	out := make([]depgraph.Edge, 0, len(in))
	for _, e := range in {
		if !known[e.From] || !known[e.To] {
			return nil, fmt.Errorf("edge %s->%s: unknown file", e.From, e.To)
		}
		out = append(out, depgraph.Edge{
			From:      depgraph.FileID(e.From),
			To:        depgraph.FileID(e.To),
			Specifier: e.Specifier,
		})
	}
	return out, nil
}
