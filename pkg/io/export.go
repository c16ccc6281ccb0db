package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pcc/pkg/depgraph"
)

type graph struct {
	Entries []string `json:"entries"`
	Files   []file   `json:"files"`
	Edges   []edge   `json:"edges"`
	Cycles  []edge   `json:"cycles,omitempty"`
}

type file struct {
	ID        string   `json:"id"`
	Entry     bool     `json:"entry,omitempty"`
	Importers []string `json:"importers,omitempty"`
}

type edge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Specifier string `json:"specifier,omitempty"`
}

// WriteJSON encodes an import graph as JSON and writes it to w.
// Files are listed in discovery order with their importer sets.
// This format can be re-imported with [ReadJSON].
func WriteJSON(g *depgraph.Graph, w io.Writer) error {
	out := graph{
		Entries: ids(g.Entries()),
		Files:   make([]file, 0, g.NodeCount()),
		Edges:   edges(g.Edges()),
		Cycles:  edges(g.Cycles()),
	}
	for _, id := range g.Files() {
		out.Files = append(out.Files, file{
			ID:        string(id),
			Entry:     g.IsEntry(id),
			Importers: ids(g.Importers(id)),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes an import graph to a JSON file at path.
func ExportJSON(g *depgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ids(in []depgraph.FileID) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = string(id)
	}
	return out
}

func edges(in []depgraph.Edge) []edge {
	out := make([]edge, len(in))
	for i, e := range in {
		out[i] = edge{From: string(e.From), To: string(e.To), Specifier: e.Specifier}
	}
	return out
}
