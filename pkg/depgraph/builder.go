package depgraph

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/matzehuels/pcc/pkg/deps/resolve"
	"github.com/matzehuels/pcc/pkg/deps/specifier"
	"github.com/matzehuels/pcc/pkg/observability"
)

// Resolver maps a specifier written in file from to a file.
// *resolve.Resolver implements it.
type Resolver interface {
	Resolve(spec, from string) resolve.Result
}

// Options configures a Builder.
type Options struct {
	// Workers bounds concurrent file loading. Values below 2 load files
	// one at a time on the calling goroutine.
	Workers int

	// ReportMisses emits a ResolutionMiss diagnostic for relative, absolute
	// and aliased specifiers that name no file.
	ReportMisses bool

	// OnDiagnostic, if set, receives every diagnostic as it is emitted.
	// It is called from the goroutine running Build.
	OnDiagnostic func(Diagnostic)

	// ReadFile reads source files. Defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.ReadFile == nil {
		o.ReadFile = os.ReadFile
	}
	return o
}

// Builder builds import graphs. It holds no per-build state and may be used
// for several builds, concurrently if desired.
type Builder struct {
	resolver Resolver
	parser   specifier.Source
	opts     Options
}

// NewBuilder creates a builder from a resolver and a specifier source.
func NewBuilder(r Resolver, p specifier.Source, opts Options) *Builder {
	return &Builder{resolver: r, parser: p, opts: opts.WithDefaults()}
}

type state uint8

const (
	unvisited state = iota
	inProgress
	done
)

// target is a resolved specifier waiting to be walked.
type target struct {
	spec string
	res  resolve.Result
}

type frame struct {
	id      FileID
	targets []target
	next    int
}

// traversal is the mutable state of one Build call.
type traversal struct {
	ctx    context.Context
	b      *Builder
	g      *Graph
	state  map[FileID]state
	loader *loader
	selfs  map[FileID]bool
}

// Build walks the import graph from entries, which must be canonical paths
// (see resolve.Resolver.Canonical). Duplicate entries are ignored.
//
// On context cancellation the graph built so far is returned with the
// context's error.
func (b *Builder) Build(ctx context.Context, entries []FileID) (*Graph, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	start := time.Now()
	hooks := observability.Build()
	hooks.OnBuildStart(ctx, len(entries))

	t := &traversal{
		ctx:    ctx,
		b:      b,
		g:      newGraph(),
		state:  make(map[FileID]state),
		loader: newLoader(b.opts.ReadFile, b.parser, b.opts.Workers),
		selfs:  make(map[FileID]bool),
	}
	for _, e := range entries {
		t.g.addEntry(e)
	}

	var err error
	for _, e := range t.g.entries {
		if t.state[e] != unvisited {
			continue
		}
		if err = t.walk(e); err != nil {
			break
		}
	}

	t.g.aggregate()
	hooks.OnBuildComplete(ctx, observability.BuildStats{
		Entries:      len(t.g.entries),
		Dependencies: len(t.g.deps),
		Edges:        len(t.g.edges),
		Cycles:       len(t.g.cycles),
		Diagnostics:  len(t.g.diagnostics),
	}, time.Since(start), err)
	return t.g, err
}

// walk runs the depth-first traversal rooted at root.
func (t *traversal) walk(root FileID) error {
	f, err := t.enter(root)
	if err != nil {
		return err
	}
	stack := []*frame{f}

	for len(stack) > 0 {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		top := stack[len(stack)-1]
		if top.next == len(top.targets) {
			t.state[top.id] = done
			stack = stack[:len(stack)-1]
			continue
		}
		tgt := top.targets[top.next]
		top.next++

		if tgt.res.Outcome != resolve.Resolved {
			if tgt.res.Miss && t.b.opts.ReportMisses {
				t.emit(Diagnostic{Kind: ResolutionMiss, File: top.id, Specifier: tgt.spec})
			}
			continue
		}

		to := FileID(tgt.res.Path)
		if to == top.id {
			if !t.selfs[to] {
				t.selfs[to] = true
				t.g.cycles = append(t.g.cycles, Edge{From: to, To: to, Specifier: tgt.spec})
				t.emit(Diagnostic{Kind: CycleDetected, File: to, Specifier: tgt.spec, Target: to})
			}
			continue
		}

		t.g.discover(to)
		isNew := t.g.addEdge(top.id, to, tgt.spec)

		switch t.state[to] {
		case unvisited:
			next, err := t.enter(to)
			if err != nil {
				return err
			}
			stack = append(stack, next)
		case inProgress:
			if isNew {
				t.g.cycles = append(t.g.cycles, Edge{From: top.id, To: to, Specifier: tgt.spec})
				t.emit(Diagnostic{Kind: CycleDetected, File: top.id, Specifier: tgt.spec, Target: to})
			}
		}
	}
	return nil
}

// enter marks id in progress, loads its specifiers and resolves them.
func (t *traversal) enter(id FileID) (*frame, error) {
	t.state[id] = inProgress
	t.g.discover(id)

	r := t.loader.load(t.ctx, id)
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case r.readErr != nil:
		t.emit(Diagnostic{Kind: ReadWarning, File: id, Err: r.readErr})
	case r.parseErr != nil:
		if errors.Is(r.parseErr, context.Canceled) || errors.Is(r.parseErr, context.DeadlineExceeded) {
			return nil, r.parseErr
		}
		t.emit(Diagnostic{Kind: ParseWarning, File: id, Err: r.parseErr})
	}
	observability.Build().OnFileVisit(t.ctx, string(id), len(r.specs))

	f := &frame{id: id, targets: make([]target, 0, len(r.specs))}
	var pending []FileID
	for _, spec := range r.specs {
		res := t.b.resolver.Resolve(spec, string(id))
		f.targets = append(f.targets, target{spec: spec, res: res})
		if res.Outcome == resolve.Resolved && t.state[FileID(res.Path)] == unvisited {
			pending = append(pending, FileID(res.Path))
		}
	}
	t.loader.prefetch(t.ctx, pending)
	return f, nil
}

func (t *traversal) emit(d Diagnostic) {
	t.g.diagnostics = append(t.g.diagnostics, d)
	if t.b.opts.OnDiagnostic != nil {
		t.b.opts.OnDiagnostic(d)
	}
}
