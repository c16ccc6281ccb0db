// Package pkg provides the core libraries of pcc, the project code combiner.
//
// # Overview
//
// pcc gathers the source files of a project into one XML, JSON or YAML
// document that can be pasted into a language model. Given entry files, it
// follows their relative and aliased imports and adds every reachable file,
// annotated with the files that import it. The pkg directory is organized
// into four main areas:
//
//  1. [deps] - Import extraction and module resolution
//  2. [depgraph] - The import graph and importer aggregation
//  3. [pipeline] - Orchestration (select → build → assemble → encode)
//  4. Infrastructure: [cache], [config], [selection], [sink] and [errors]
//
// # Architecture
//
// The typical data flow through pcc:
//
//	Paths, --target, --reference
//	         ↓
//	    [selection] package (expand directories, apply ignore rules)
//	         ↓
//	    [depgraph] package (parse specifiers, resolve, traverse)
//	         ↓
//	    [document] package (targets, references, dependencies, cycles)
//	         ↓
//	    XML/JSON/YAML to the clipboard, a file or stdout
//
// # Quick Start
//
// Combine a project and its dependencies:
//
//	import (
//	    "context"
//	    "fmt"
//	    "github.com/matzehuels/pcc/pkg/cache"
//	    "github.com/matzehuels/pcc/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Root:  "/path/to/project",
//	    Paths: []string{"src/index.ts"},
//	    Deps:  true,
//	})
//	fmt.Println(string(res.Output))
//
// # Main Packages
//
// [deps/specifier] - Extracts module specifiers from TypeScript and
// JavaScript sources with tree-sitter: static imports, re-exports, dynamic
// import() and require() with literal arguments.
//
// [deps/resolve] - Maps a specifier and its importing file to a project file
// or classifies it as external. Relative paths, aliases, tsconfig baseUrl
// and index files are supported.
//
// [depgraph] - Builds the import graph from entry files by depth-first
// traversal with concurrent file loading. Records cycles and diagnostics and
// computes the transitive importers of every file.
//
// [document] - Assembles and encodes the combined document.
//
// [render/nodelink] - Draws the import graph with Graphviz.
//
// [io] - Reads and writes the import graph as JSON.
//
// [pipeline] - The complete run used by the CLI.
//
// [cache] - File and Redis caches for parsed specifiers and rendered graphs.
//
// [observability] - Hooks for build and cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/depgraph/...  # Specific package
//	go test -run Example        # Examples only
//
// [deps]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/deps
// [deps/specifier]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/deps/specifier
// [deps/resolve]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/deps/resolve
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/depgraph
// [document]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/document
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/config
// [selection]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/selection
// [sink]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/sink
// [errors]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pcc/pkg/observability
package pkg
