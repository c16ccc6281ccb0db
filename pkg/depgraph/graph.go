package depgraph

import (
	"errors"
	"slices"
)

// ErrNoEntries is returned when a build is started without entry files.
var ErrNoEntries = errors.New("no entry points supplied")

// FileID identifies a resolved file by its canonical absolute path. Two
// specifiers naming the same file always produce the same FileID.
type FileID string

// Edge records that From imports To. Specifier is the text of the first
// import that produced the edge.
type Edge struct {
	From      FileID
	To        FileID
	Specifier string
}

type edgeKey struct{ from, to FileID }

// Graph is the result of a build. It is immutable once returned and safe
// for concurrent reads.
type Graph struct {
	entries  []FileID
	isEntry  map[FileID]bool
	deps     []FileID
	order    map[FileID]int
	edges    []Edge
	edgeSet  map[edgeKey]bool
	outgoing map[FileID][]FileID
	incoming map[FileID][]FileID

	importers   map[FileID][]FileID
	cycles      []Edge
	diagnostics []Diagnostic
}

func newGraph() *Graph {
	return &Graph{
		isEntry:  make(map[FileID]bool),
		order:    make(map[FileID]int),
		edgeSet:  make(map[edgeKey]bool),
		outgoing: make(map[FileID][]FileID),
		incoming: make(map[FileID][]FileID),
	}
}

// Assemble creates a graph from known entries, edges and cycles, for example
// ones decoded from a previous run. Discovery order is entry order followed
// by first appearance in edges. Duplicate and self edges are dropped; cycles
// are kept as given.
func Assemble(entries []FileID, edges []Edge, cycles []Edge) *Graph {
	g := newGraph()
	for _, e := range entries {
		g.addEntry(e)
	}
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		g.discover(e.From)
		g.discover(e.To)
		g.addEdge(e.From, e.To, e.Specifier)
	}
	g.cycles = slices.Clone(cycles)
	g.aggregate()
	return g
}

func (g *Graph) addEntry(id FileID) bool {
	if g.isEntry[id] {
		return false
	}
	g.isEntry[id] = true
	g.entries = append(g.entries, id)
	g.discover(id)
	return true
}

// discover assigns id the next discovery index and lists it as a dependency
// unless it is an entry.
func (g *Graph) discover(id FileID) {
	if _, ok := g.order[id]; ok {
		return
	}
	g.order[id] = len(g.order)
	if !g.isEntry[id] {
		g.deps = append(g.deps, id)
	}
}

// addEdge records from→to once and reports whether it was new.
func (g *Graph) addEdge(from, to FileID, spec string) bool {
	k := edgeKey{from, to}
	if g.edgeSet[k] {
		return false
	}
	g.edgeSet[k] = true
	g.edges = append(g.edges, Edge{From: from, To: to, Specifier: spec})
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return true
}

// Entries returns the entry files in caller order, without duplicates.
func (g *Graph) Entries() []FileID { return slices.Clone(g.entries) }

// Dependencies returns every reachable non-entry file in first-discovery order.
func (g *Graph) Dependencies() []FileID { return slices.Clone(g.deps) }

// Files returns entries followed by dependencies.
func (g *Graph) Files() []FileID {
	out := make([]FileID, 0, len(g.entries)+len(g.deps))
	out = append(out, g.entries...)
	return append(out, g.deps...)
}

// IsEntry reports whether id is an entry file.
func (g *Graph) IsEntry(id FileID) bool { return g.isEntry[id] }

// Contains reports whether id is part of the graph.
func (g *Graph) Contains(id FileID) bool {
	_, ok := g.order[id]
	return ok
}

// Order returns the discovery index of id, or -1 if it is not in the graph.
func (g *Graph) Order(id FileID) int {
	if i, ok := g.order[id]; ok {
		return i
	}
	return -1
}

// Edges returns the deduplicated edges in the order they were recorded.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// HasEdge reports whether from imports to.
func (g *Graph) HasEdge(from, to FileID) bool { return g.edgeSet[edgeKey{from, to}] }

// Imports returns the files id imports directly, in source order.
func (g *Graph) Imports(id FileID) []FileID { return slices.Clone(g.outgoing[id]) }

// ImportedBy returns the files that import id directly.
func (g *Graph) ImportedBy(id FileID) []FileID { return slices.Clone(g.incoming[id]) }

// Importers returns every file with a directed path to id, ordered by
// discovery. For a dependency the result is never empty.
func (g *Graph) Importers(id FileID) []FileID { return slices.Clone(g.importers[id]) }

// Cycles returns the closing edge of each detected cycle. A file importing
// itself appears as an edge from the file to itself, which is never part of
// Edges.
func (g *Graph) Cycles() []Edge { return slices.Clone(g.cycles) }

// Diagnostics returns the non-fatal events of the build in emission order.
func (g *Graph) Diagnostics() []Diagnostic { return slices.Clone(g.diagnostics) }

// NodeCount returns the number of files in the graph.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }
