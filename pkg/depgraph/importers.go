package depgraph

import "slices"

// aggregate computes the importer set of every file that has at least one
// incoming edge, by walking edges backwards from it.
func (g *Graph) aggregate() {
	g.importers = make(map[FileID][]FileID, len(g.incoming))
	for id := range g.incoming {
		g.importers[id] = g.ancestors(id)
	}
}

// ancestors returns all files other than id that reach id, ordered by
// discovery.
func (g *Graph) ancestors(id FileID) []FileID {
	seen := map[FileID]bool{id: true}
	queue := []FileID{id}
	var out []FileID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, parent := range g.incoming[cur] {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			out = append(out, parent)
			queue = append(queue, parent)
		}
	}
	g.sortByDiscovery(out)
	return out
}

// ReachableFrom returns the files reachable from entry through one or more
// imports, ordered by discovery. The entry itself is only included when it
// sits on a cycle.
func (g *Graph) ReachableFrom(entry FileID) []FileID {
	seen := make(map[FileID]bool)
	stack := slices.Clone(g.outgoing[entry])
	var out []FileID
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		stack = append(stack, g.outgoing[cur]...)
	}
	g.sortByDiscovery(out)
	return out
}

func (g *Graph) sortByDiscovery(ids []FileID) {
	slices.SortFunc(ids, func(a, b FileID) int { return g.order[a] - g.order[b] })
}
