package depgraph_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/pcc/pkg/depgraph"
	"github.com/matzehuels/pcc/pkg/deps/resolve"
)

// memProject maps each file to the specifiers it imports. Specifiers are
// the absolute paths of other files, or anything else for packages.
type memProject map[string][]string

func (p memProject) Parse(_ context.Context, path string, _ []byte) ([]string, error) {
	return p[path], nil
}

func (p memProject) Resolve(spec, _ string) resolve.Result {
	if _, ok := p[spec]; ok {
		return resolve.Result{Outcome: resolve.Resolved, Path: spec}
	}
	return resolve.Result{Outcome: resolve.External}
}

func noRead(string) ([]byte, error) { return nil, nil }

func Example() {
	project := memProject{
		"/src/a.ts": {"/src/b.ts", "react"},
		"/src/b.ts": {"/src/c.ts", "/src/a.ts"},
		"/src/c.ts": nil,
	}
	b := depgraph.NewBuilder(project, project, depgraph.Options{ReadFile: noRead})

	g, err := b.Build(context.Background(), []depgraph.FileID{"/src/a.ts"})
	if err != nil {
		panic(err)
	}

	fmt.Println("dependencies:", g.Dependencies())
	fmt.Println("importers of c:", g.Importers("/src/c.ts"))
	for _, c := range g.Cycles() {
		fmt.Printf("cycle: %s -> %s\n", c.From, c.To)
	}
	// Output:
	// dependencies: [/src/b.ts /src/c.ts]
	// importers of c: [/src/a.ts /src/b.ts]
	// cycle: /src/b.ts -> /src/a.ts
}

func ExampleGraph_ReachableFrom() {
	g := depgraph.Assemble(
		[]depgraph.FileID{"/app.ts", "/worker.ts"},
		[]depgraph.Edge{
			{From: "/app.ts", To: "/ui.ts"},
			{From: "/ui.ts", To: "/util.ts"},
			{From: "/worker.ts", To: "/util.ts"},
		},
		nil,
	)
	fmt.Println(g.ReachableFrom("/app.ts"))
	fmt.Println(g.ReachableFrom("/worker.ts"))
	// Output:
	// [/ui.ts /util.ts]
	// [/util.ts]
}
