// Package depgraph builds the import graph of a TypeScript/JavaScript project.
//
// # Overview
//
// A [Builder] starts from one or more entry files and follows every import
// specifier it can resolve to a project file. The result is an immutable
// [Graph]: the entries, every reachable dependency in first-discovery order,
// the deduplicated edge set, cycles and non-fatal diagnostics.
//
// # Traversal
//
// Each file moves through three states exactly once:
//
//	unvisited → in progress → done
//
// The walk is depth-first over an explicit frame stack, so deep import chains
// cannot overflow the goroutine stack. Meeting a file that is still in
// progress closes a cycle: the closing edge is recorded in [Graph.Cycles] and
// the walk continues with the next specifier. Meeting a finished file only
// records the edge.
//
// Entries are roots: they are never listed as dependencies, even when another
// entry imports them, but they do appear as importers.
//
// # Importers
//
// [Graph.Importers] returns, for a file D, every file with a directed path to
// D, not only its direct importers. For the project
//
//	a.ts → b.ts → c.ts
//
// the importers of c.ts are [a.ts b.ts].
//
// # Failure Semantics
//
// Nothing inside a build is fatal. Unresolvable specifiers are dropped,
// unreadable files and syntax errors become [Diagnostic] values, and cycles
// are reported rather than rejected. Only an empty entry list
// ([ErrNoEntries]) and context cancellation return errors; on cancellation the
// partial graph is returned alongside the context error.
//
// # Concurrency
//
// Graph state is only ever written by the goroutine calling [Builder.Build].
// With [Options.Workers] above one, the files a node imports are read and
// parsed concurrently before the walk descends into them, which speeds up
// large projects without changing the result.
package depgraph
