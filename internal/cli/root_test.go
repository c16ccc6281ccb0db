package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pcc/pkg/errors"
	"github.com/matzehuels/pcc/pkg/observability"
)

// setup creates a project, isolates config and cache, and changes into the
// project directory.
func setup(t *testing.T, files map[string]string) string {
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

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("PCC_CONFIG", filepath.Join(home, "pcc.toml"))
	t.Setenv("PCC_ACTION", "")
	t.Setenv("PCC_FORMAT", "")
	t.Setenv("PCC_REDIS_URL", "")
	t.Chdir(root)

	old := uiOut
	uiOut = io.Discard
	t.Cleanup(func() {
		uiOut = old
		observability.Reset()
	})
	return root
}

var project = map[string]string{
	"src/main.ts": "import { b } from './b'\nimport React from 'react'\n",
	"src/b.ts":    "import { a } from '@app/a'\nexport const b = 1\n",
	"src/a.ts":    "import { b } from './b'\nexport const a = 2\n",
	"README.md":   "# demo\n",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Stdout = &stdout
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootRequiresInput(t *testing.T) {
	setup(t, project)
	_, err := run(t)
	if !errors.Is(err, errors.ErrCodeNoEntryPoints) {
		t.Errorf("err = %v, want NO_ENTRY_POINTS", err)
	}
}

func TestCombinePrint(t *testing.T) {
	setup(t, project)
	out, err := run(t, "src/main.ts", "--deps", "--alias", "@app/*=src/*", "--reference", "README.md")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{
		"<references>",
		`<file name="README.md">`,
		`<file name="src/main.ts">`,
		"<dependencies>",
		`<file name="src/a.ts">`,
		`<file name="src/b.ts">`,
		`<importer>src/main.ts</importer>`,
		`<cycle from="src/a.ts" to="src/b.ts"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s\n%s", want, out)
		}
	}
}

func TestCombineWithoutDeps(t *testing.T) {
	setup(t, project)
	out, err := run(t, "src/main.ts", "--print")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "<dependencies>") {
		t.Errorf("dependencies without --deps:\n%s", out)
	}
}

func TestCombineSave(t *testing.T) {
	root := setup(t, project)
	out, err := run(t, "src", "--format", "yaml", "-o", "out/combined.yaml")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "" {
		t.Errorf("save should not print the document, got %q", out)
	}
	data, err := os.ReadFile(filepath.Join(root, "out", "combined.yaml"))
	if err != nil {
		t.Fatalf("saved file: %v", err)
	}
	if !strings.Contains(string(data), "name: src/main.ts") {
		t.Errorf("saved yaml:\n%s", data)
	}
}

func TestCombineConfigDefaults(t *testing.T) {
	setup(t, project)
	cfg := "[default]\nformat = \"json\"\ndeps = true\nuse_relative_paths = false\n"
	if err := os.WriteFile(os.Getenv("PCC_CONFIG"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "src/main.ts")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"dependencies"`) {
		t.Errorf("expected json with dependencies:\n%s", out)
	}
	wd, _ := os.Getwd()
	if !strings.Contains(out, filepath.Join(wd, "src", "b.ts")) {
		t.Errorf("expected absolute paths:\n%s", out)
	}
}

func TestCombineFlagErrors(t *testing.T) {
	setup(t, project)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"exclusive actions", []string{"src", "--copy", "--print"}, errors.ErrCodeInvalidInput},
		{"bad alias", []string{"src", "--alias", "nope"}, errors.ErrCodeInvalidInput},
		{"bad format", []string{"src", "--format", "csv"}, errors.ErrCodeInvalidFormat},
		{"missing path", []string{"nope.ts"}, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCombineOptsAction(t *testing.T) {
	tests := []struct {
		opts    combineOpts
		want    string
		wantErr bool
	}{
		{combineOpts{}, "", false},
		{combineOpts{copy: true}, "copy", false},
		{combineOpts{save: true}, "save", false},
		{combineOpts{print: true}, "print", false},
		{combineOpts{copy: true, save: true}, "", true},
	}
	for _, tt := range tests {
		got, err := tt.opts.action()
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("action() = %q, %v; want %q, err %v", got, err, tt.want, tt.wantErr)
		}
	}
}

func TestGraphCommand(t *testing.T) {
	setup(t, project)
	out, err := run(t, "graph", "src/main.ts", "--format", "dot", "--alias", "@app/*=src/*")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"digraph G {", `label="src/main.ts"`, "color=red, style=dashed"} {
		if !strings.Contains(out, want) {
			t.Errorf("dot missing %s\n%s", want, out)
		}
	}

	if _, err := run(t, "graph", "src/main.ts", "--format", "png"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("png: err = %v", err)
	}
	if _, err := run(t, "graph", "README.md"); !errors.Is(err, errors.ErrCodeNoEntryPoints) {
		t.Errorf("no sources: err = %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	setup(t, project)
	out, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	if _, err := run(t, "src/main.ts", "--deps"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(want)
	if len(entries) == 0 {
		t.Fatal("a run with --deps should populate the cache")
	}
	if _, err := run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(want); len(entries) != 0 {
		t.Errorf("cache not cleared: %v", entries)
	}
}

func TestTimeoutError(t *testing.T) {
	err := timeoutError(context.DeadlineExceeded, time.Second)
	if !errors.Is(err, errors.ErrCodeTimeout) || !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timeoutError = %v", err)
	}
	other := stderrors.New("boom")
	if timeoutError(other, time.Second) != other {
		t.Error("other errors should pass through")
	}
}
