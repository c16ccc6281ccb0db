package depgraph

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pcc/pkg/deps/resolve"
	"github.com/matzehuels/pcc/pkg/deps/specifier"
)

// project writes files under a temp root and returns the symlink-free root.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func ids(root string, names ...string) []FileID {
	out := make([]FileID, len(names))
	for i, n := range names {
		out[i] = FileID(filepath.Join(root, filepath.FromSlash(n)))
	}
	return out
}

func build(t *testing.T, root string, c resolve.Context, opts Options, entries ...string) *Graph {
	t.Helper()
	c.Root = root
	r, err := resolve.New(c)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewBuilder(r, specifier.New(), opts).Build(context.Background(), ids(root, entries...))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildScenario(t *testing.T) {
	root := project(t, map[string]string{
		"a.ts": "import { b } from './b';\nimport x from 'pkg-x';\n",
		"b.ts": "import { c } from './c';\nimport { a } from './a';\nexport const b = 1;\n",
		"c.ts": "export const c = 1;\n",
	})
	g := build(t, root, resolve.Context{}, Options{}, "a.ts")
	id := func(n string) FileID { return ids(root, n)[0] }
	a, b, c := id("a.ts"), id("b.ts"), id("c.ts")

	if diff := cmp.Diff([]FileID{b, c}, g.Dependencies()); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
	wantEdges := []Edge{
		{From: a, To: b, Specifier: "./b"},
		{From: b, To: c, Specifier: "./c"},
		{From: b, To: a, Specifier: "./a"},
	}
	if diff := cmp.Diff(wantEdges, g.Edges()); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{a}, g.Importers(b)); diff != "" {
		t.Errorf("importers(b) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{a, b}, g.Importers(c)); diff != "" {
		t.Errorf("importers(c) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Edge{{From: b, To: a, Specifier: "./a"}}, g.Cycles()); diff != "" {
		t.Errorf("cycles (-want +got):\n%s", diff)
	}

	var cycles int
	for _, d := range g.Diagnostics() {
		if d.Kind == CycleDetected {
			cycles++
			if d.File != b || d.Target != a {
				t.Errorf("cycle diagnostic = %+v", d)
			}
		}
	}
	if cycles != 1 {
		t.Errorf("cycle diagnostics = %d, want 1", cycles)
	}
}

func TestBuildMutualCycleBetweenDependencies(t *testing.T) {
	root := project(t, map[string]string{
		"main.ts": "import './a';\n",
		"a.ts":    "import './b';\n",
		"b.ts":    "import './a';\n",
	})
	g := build(t, root, resolve.Context{}, Options{}, "main.ts")
	a, b := ids(root, "a.ts")[0], ids(root, "b.ts")[0]

	if diff := cmp.Diff([]FileID{a, b}, g.Dependencies()); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Edge{{From: b, To: a, Specifier: "./a"}}, g.Cycles()); diff != "" {
		t.Errorf("cycles (-want +got):\n%s", diff)
	}
	// b reaches a through the cycle, and a reaches b directly.
	main := ids(root, "main.ts")[0]
	if diff := cmp.Diff([]FileID{main, b}, g.Importers(a)); diff != "" {
		t.Errorf("importers(a) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{main, a}, g.Importers(b)); diff != "" {
		t.Errorf("importers(b) (-want +got):\n%s", diff)
	}
}

func TestBuildDiamondVisitsOnce(t *testing.T) {
	root := project(t, map[string]string{
		"main.ts":   "import './left';\nimport './right';\nimport './left';\n",
		"left.ts":   "import { s } from './shared';\n",
		"right.ts":  "import { s } from './shared.ts';\n",
		"shared.ts": "export const s = 1;\n",
	})
	var visits sync.Map
	read := func(p string) ([]byte, error) {
		n, _ := visits.LoadOrStore(p, new(int))
		*n.(*int)++
		return os.ReadFile(p)
	}
	g := build(t, root, resolve.Context{}, Options{ReadFile: read}, "main.ts")

	visits.Range(func(k, v any) bool {
		if *v.(*int) != 1 {
			t.Errorf("%s read %d times", k, *v.(*int))
		}
		return true
	})
	if g.EdgeCount() != 4 {
		t.Errorf("edges = %d, want 4", g.EdgeCount())
	}
	main, left, right := ids(root, "main.ts")[0], ids(root, "left.ts")[0], ids(root, "right.ts")[0]
	shared := ids(root, "shared.ts")[0]
	if diff := cmp.Diff([]FileID{main, left, right}, g.Importers(shared)); diff != "" {
		t.Errorf("importers(shared) (-want +got):\n%s", diff)
	}
	if len(g.Cycles()) != 0 {
		t.Errorf("unexpected cycles: %v", g.Cycles())
	}
}

func TestBuildAlias(t *testing.T) {
	root := project(t, map[string]string{
		"src/main.ts":         "import { f } from '@app/utils/format';\n",
		"src/utils/format.ts": "export const f = 1;\n",
		"src/utils/format.js": "exports.f = 1;\n",
	})
	c := resolve.Context{Aliases: []resolve.Alias{{Pattern: "@app/*", Targets: []string{"src/*"}}}}
	g := build(t, root, c, Options{}, "src/main.ts")
	if diff := cmp.Diff(ids(root, "src/utils/format.ts"), g.Dependencies()); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
}

func TestBuildMissingFile(t *testing.T) {
	root := project(t, map[string]string{
		"a.ts": "import './missing';\nimport 'lodash';\n",
	})
	g := build(t, root, resolve.Context{}, Options{}, "a.ts")
	if g.EdgeCount() != 0 || len(g.Dependencies()) != 0 || len(g.Diagnostics()) != 0 {
		t.Errorf("edges %d, deps %v, diagnostics %v", g.EdgeCount(), g.Dependencies(), g.Diagnostics())
	}

	var got []Diagnostic
	g = build(t, root, resolve.Context{}, Options{
		ReportMisses: true,
		OnDiagnostic: func(d Diagnostic) { got = append(got, d) },
	}, "a.ts")
	want := []Diagnostic{{Kind: ResolutionMiss, File: ids(root, "a.ts")[0], Specifier: "./missing"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("callback diagnostics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, g.Diagnostics()); diff != "" {
		t.Errorf("graph diagnostics (-want +got):\n%s", diff)
	}
}

func TestBuildSelfImport(t *testing.T) {
	root := project(t, map[string]string{
		"a.ts": "import './a';\nimport './a.ts';\n",
	})
	g := build(t, root, resolve.Context{}, Options{}, "a.ts")
	a := ids(root, "a.ts")[0]
	if g.EdgeCount() != 0 {
		t.Errorf("self import produced edges: %v", g.Edges())
	}
	if diff := cmp.Diff([]Edge{{From: a, To: a, Specifier: "./a"}}, g.Cycles()); diff != "" {
		t.Errorf("cycles (-want +got):\n%s", diff)
	}
	if d := g.Diagnostics(); len(d) != 1 || d[0].Kind != CycleDetected || d[0].Target != a {
		t.Errorf("diagnostics = %v", d)
	}
}

func TestBuildEntryImportedByEntry(t *testing.T) {
	root := project(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "import './c';\n",
		"c.ts": "",
	})
	g := build(t, root, resolve.Context{}, Options{}, "a.ts", "b.ts", "a.ts")
	a, b, c := ids(root, "a.ts")[0], ids(root, "b.ts")[0], ids(root, "c.ts")[0]

	if diff := cmp.Diff([]FileID{a, b}, g.Entries()); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{c}, g.Dependencies()); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{a}, g.Importers(b)); diff != "" {
		t.Errorf("importers(b) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]FileID{a, b}, g.Importers(c)); diff != "" {
		t.Errorf("importers(c) (-want +got):\n%s", diff)
	}
}

func TestBuildWarnings(t *testing.T) {
	root := project(t, map[string]string{
		"main.ts":   "import './broken';\nimport './locked';\nimport './ok';\n",
		"broken.ts": "import { from './x';\nconst = ;\n",
		"locked.ts": "import './ok';\n",
		"ok.ts":     "",
	})
	locked := string(ids(root, "locked.ts")[0])
	read := func(p string) ([]byte, error) {
		if p == locked {
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrPermission}
		}
		return os.ReadFile(p)
	}
	g := build(t, root, resolve.Context{}, Options{ReadFile: read}, "main.ts")

	if diff := cmp.Diff(ids(root, "broken.ts", "locked.ts", "ok.ts"), g.Dependencies()); diff != "" {
		t.Errorf("dependencies (-want +got):\n%s", diff)
	}
	diags := g.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %v", diags)
	}
	if diags[0].Kind != ParseWarning || !errors.Is(diags[0].Err, specifier.ErrSyntax) {
		t.Errorf("first diagnostic = %v", diags[0])
	}
	if diags[1].Kind != ReadWarning || !errors.Is(diags[1].Err, fs.ErrPermission) {
		t.Errorf("second diagnostic = %v", diags[1])
	}
	if n := len(g.Imports(FileID(locked))); n != 0 {
		t.Errorf("unreadable file has %d imports", n)
	}
}

func TestBuildNoEntries(t *testing.T) {
	b := NewBuilder(nil, nil, Options{})
	if _, err := b.Build(context.Background(), nil); !errors.Is(err, ErrNoEntries) {
		t.Errorf("err = %v, want ErrNoEntries", err)
	}
}

func TestBuildCanceled(t *testing.T) {
	root := project(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "",
	})
	r, err := resolve.New(resolve.Context{Root: root})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, err := NewBuilder(r, specifier.New(), Options{}).Build(ctx, ids(root, "a.ts"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if g == nil || len(g.Entries()) != 1 {
		t.Errorf("partial graph = %v", g)
	}
}

func TestBuildPrefetchMatchesSequential(t *testing.T) {
	files := map[string]string{
		"main.ts": "import './a';\nimport './b';\nimport './c';\n",
		"a.ts":    "import './d';\nimport './b';\n",
		"b.ts":    "import './d';\nimport './e';\n",
		"c.ts":    "import './e';\nimport './main';\n",
		"d.ts":    "import './e';\n",
		"e.ts":    "import './a';\n",
	}
	root := project(t, files)
	seq := build(t, root, resolve.Context{}, Options{Workers: 1}, "main.ts")
	par := build(t, root, resolve.Context{}, Options{Workers: 8}, "main.ts")

	if diff := cmp.Diff(seq.Dependencies(), par.Dependencies()); diff != "" {
		t.Errorf("dependencies differ (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.Edges(), par.Edges()); diff != "" {
		t.Errorf("edges differ (-seq +par):\n%s", diff)
	}
	if diff := cmp.Diff(seq.Cycles(), par.Cycles()); diff != "" {
		t.Errorf("cycles differ (-seq +par):\n%s", diff)
	}
	for _, id := range seq.Dependencies() {
		if diff := cmp.Diff(seq.Importers(id), par.Importers(id)); diff != "" {
			t.Errorf("importers(%s) differ (-seq +par):\n%s", id, diff)
		}
	}
}

func TestImporterSetsMatchEdges(t *testing.T) {
	root := project(t, map[string]string{
		"main.ts": "import './a';\nimport './b';\n",
		"a.ts":    "import './c';\n",
		"b.ts":    "import './c';\nimport './d';\n",
		"c.ts":    "import './d';\n",
		"d.ts":    "",
	})
	g := build(t, root, resolve.Context{}, Options{}, "main.ts")

	// Brute force: x reaches d iff d is in ReachableFrom-style closure of x.
	reaches := func(from, to FileID) bool {
		seen := map[FileID]bool{}
		stack := []FileID{from}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range g.Imports(cur) {
				if next == to {
					return true
				}
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
		return false
	}
	for _, d := range g.Dependencies() {
		var want []FileID
		for _, x := range g.Files() {
			if x != d && reaches(x, d) {
				want = append(want, x)
			}
		}
		if diff := cmp.Diff(want, g.Importers(d)); diff != "" {
			t.Errorf("importers(%s) (-want +got):\n%s", filepath.Base(string(d)), diff)
		}
		if len(g.Importers(d)) == 0 {
			t.Errorf("dependency %s has no importers", d)
		}
	}
}
