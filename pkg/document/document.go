// Package document assembles pcc's combined output.
//
// A [Document] lists the files a user asked for (targets, references and
// main files) followed by the dependencies discovered by the import graph,
// each annotated with every file that reaches it. [Encode] serializes a
// document as XML, JSON or YAML.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/pcc/pkg/depgraph"
)

// File is one file in the output.
type File struct {
	Name       string   `json:"name" yaml:"name"`
	ImportedBy []string `json:"imported_by,omitempty" yaml:"imported_by,omitempty"`
	Content    string   `json:"content" yaml:"content"`
}

// Cycle is a circular import, reported by the import that closes it.
type Cycle struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Document is the combined output of one run.
type Document struct {
	Targets      []File  `json:"targets,omitempty" yaml:"targets,omitempty"`
	References   []File  `json:"references,omitempty" yaml:"references,omitempty"`
	Files        []File  `json:"files,omitempty" yaml:"files,omitempty"`
	Dependencies []File  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Cycles       []Cycle `json:"cycles,omitempty" yaml:"cycles,omitempty"`

	// Skipped lists dependencies that could not be read.
	Skipped []string `json:"-" yaml:"-"`
}

// Input describes what goes into a document. All paths are absolute.
type Input struct {
	Targets    []string
	References []string
	Files      []string

	// Graph supplies dependencies and cycles. It may be nil.
	Graph *depgraph.Graph

	// Root is the directory display names are relative to when Relative is
	// set. Files outside Root keep their absolute path.
	Root     string
	Relative bool

	// Ignored excludes dependencies from the output. It may be nil.
	Ignored func(path string) bool

	// ReadFile defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Build reads every listed file and assembles the document. A file is
// emitted at most once: targets win over references, references over main
// files, and dependencies already emitted are not repeated. Failing to read
// a listed file is an error; failing to read a dependency records it in
// Skipped.
func Build(in Input) (*Document, error) {
	if in.ReadFile == nil {
		in.ReadFile = os.ReadFile
	}
	b := &builder{in: in, emitted: make(map[string]bool)}

	var (
		doc Document
		err error
	)
	if doc.Targets, err = b.section(in.Targets); err != nil {
		return nil, err
	}
	if doc.References, err = b.section(in.References); err != nil {
		return nil, err
	}
	if doc.Files, err = b.section(in.Files); err != nil {
		return nil, err
	}
	if in.Graph == nil {
		return &doc, nil
	}

	doc.Dependencies, doc.Skipped, err = b.dependencies(in.Graph)
	if err != nil {
		return nil, err
	}
	for _, c := range in.Graph.Cycles() {
		doc.Cycles = append(doc.Cycles, Cycle{
			From: b.display(string(c.From)),
			To:   b.display(string(c.To)),
		})
	}
	return &doc, nil
}

type builder struct {
	in      Input
	emitted map[string]bool
}

func (b *builder) section(paths []string) ([]File, error) {
	var out []File
	for _, p := range paths {
		if b.emitted[p] {
			continue
		}
		data, err := b.in.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		b.emitted[p] = true
		out = append(out, File{Name: b.display(p), Content: string(data)})
	}
	return out, nil
}

func (b *builder) dependencies(g *depgraph.Graph) ([]File, []string, error) {
	type dep struct {
		path, name string
	}
	var deps []dep
	for _, id := range g.Dependencies() {
		p := string(id)
		if b.emitted[p] || (b.in.Ignored != nil && b.in.Ignored(p)) {
			continue
		}
		deps = append(deps, dep{p, b.display(p)})
	}
	slices.SortStableFunc(deps, func(x, y dep) int { return strings.Compare(x.name, y.name) })

	var (
		out     []File
		skipped []string
	)
	for _, d := range deps {
		data, err := b.in.ReadFile(d.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				skipped = append(skipped, d.path)
				continue
			}
			return nil, nil, fmt.Errorf("read %s: %w", d.path, err)
		}
		b.emitted[d.path] = true
		f := File{Name: d.name, Content: string(data)}
		for _, imp := range g.Importers(depgraph.FileID(d.path)) {
			f.ImportedBy = append(f.ImportedBy, b.display(string(imp)))
		}
		out = append(out, f)
	}
	return out, skipped, nil
}

// display returns the name a file is listed under.
func (b *builder) display(path string) string {
	if !b.in.Relative || b.in.Root == "" {
		return path
	}
	rel, err := filepath.Rel(b.in.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}
