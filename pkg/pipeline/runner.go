package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcc/pkg/cache"
	"github.com/matzehuels/pcc/pkg/depgraph"
	"github.com/matzehuels/pcc/pkg/deps/resolve"
	"github.com/matzehuels/pcc/pkg/deps/specifier"
	"github.com/matzehuels/pcc/pkg/document"
	"github.com/matzehuels/pcc/pkg/errors"
	"github.com/matzehuels/pcc/pkg/selection"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Selection is the outcome of the select stage. All paths are absolute and
// each file appears in at most one list.
type Selection struct {
	Targets    []string
	References []string
	Files      []string

	selector *selection.Selector
}

// Ignored reports whether path matches the run's ignore patterns.
func (s *Selection) Ignored(path string) bool { return s.selector.Ignored(path) }

// Entries returns the files imports are followed from: targets, then main
// files.
func (s *Selection) Entries() []string {
	out := make([]string, 0, len(s.Targets)+len(s.Files))
	out = append(out, s.Targets...)
	return append(out, s.Files...)
}

// Execute runs the complete select → build → assemble → encode pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	selectStart := time.Now()
	sel, err := r.Select(opts)
	if err != nil {
		return nil, err
	}
	result.Stats.SelectTime = time.Since(selectStart)
	result.Stats.Files = len(sel.Targets) + len(sel.References) + len(sel.Files)
	opts.Logger.Debug("selected files",
		"targets", len(sel.Targets),
		"references", len(sel.References),
		"files", len(sel.Files),
		"duration", result.Stats.SelectTime)

	if opts.Deps {
		buildStart := time.Now()
		res, err := resolve.New(opts.Resolve)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, err, "resolver")
		}
		g, err := r.BuildGraph(ctx, res, sel.Entries(), opts)
		if err != nil {
			return nil, err
		}
		result.Graph = g
		result.Stats.BuildTime = time.Since(buildStart)
		if g != nil {
			result.Stats.Dependencies = len(g.Dependencies())
			result.Stats.Cycles = len(g.Cycles())
			result.Stats.Diagnostics = len(g.Diagnostics())
			opts.Logger.Info("built import graph",
				"files", g.NodeCount(),
				"edges", g.EdgeCount(),
				"cycles", len(g.Cycles()),
				"duration", result.Stats.BuildTime)
		}
	}

	assembleStart := time.Now()
	doc, err := document.Build(document.Input{
		Targets:    sel.Targets,
		References: sel.References,
		Files:      sel.Files,
		Graph:      result.Graph,
		Root:       opts.Root,
		Relative:   opts.Relative,
		Ignored:    sel.Ignored,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "assemble document")
	}
	for _, p := range doc.Skipped {
		opts.Logger.Warn("skipped unreadable dependency", "path", p)
	}
	result.Document = doc

	out, err := Encode(doc, opts.Format)
	if err != nil {
		return nil, err
	}
	result.Output = out
	result.Stats.AssembleTime = time.Since(assembleStart)
	return result, nil
}

// Select expands the targets, references and paths of opts into canonical
// paths that match the graph's file ids. A file named in several lists is
// kept in the first of targets, references and paths.
func (r *Runner) Select(opts Options) (*Selection, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	s, err := selection.New(selection.Options{
		Root:        opts.Root,
		Patterns:    opts.IgnorePatterns,
		IgnoreFile:  opts.IgnoreFile,
		NoGitignore: opts.NoGitignore,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "ignore patterns")
	}

	sel := &Selection{selector: s}
	seen := make(map[string]bool)
	for _, list := range []struct {
		in  []string
		out *[]string
	}{
		{opts.Targets, &sel.Targets},
		{opts.References, &sel.References},
		{opts.Paths, &sel.Files},
	} {
		files, err := s.Expand(list.in)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "select files")
		}
		for _, f := range files {
			f = canonicalPath(f)
			if !seen[f] {
				seen[f] = true
				*list.out = append(*list.out, f)
			}
		}
	}
	return sel, nil
}

// Graph selects files and builds the import graph from targets and main
// files, regardless of Options.Deps.
func (r *Runner) Graph(ctx context.Context, opts Options) (*depgraph.Graph, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	sel, err := r.Select(opts)
	if err != nil {
		return nil, err
	}
	res, err := resolve.New(opts.Resolve)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "resolver")
	}
	g, err := r.BuildGraph(ctx, res, sel.Entries(), opts)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.New(errors.ErrCodeNoEntryPoints, "no source files among the selected paths")
	}
	return g, nil
}

// BuildGraph walks imports from the source files among entries. It returns
// a nil graph when no entry is a source file. Specifiers are parsed through
// the runner's cache.
func (r *Runner) BuildGraph(ctx context.Context, res *resolve.Resolver, entries []string, opts Options) (*depgraph.Graph, error) {
	r.applyLogger(&opts)
	var ids []depgraph.FileID
	for _, e := range entries {
		if res.IsSource(e) {
			ids = append(ids, depgraph.FileID(res.Canonical(e)))
		}
	}
	if len(ids) == 0 {
		opts.Logger.Debug("no source files to follow")
		return nil, nil
	}

	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = cache.DefaultTTL
	}
	parser := specifier.NewCached(specifier.New(), r.Cache, r.Keyer, ttl)
	parser.Logger = opts.Logger.Warnf
	b := depgraph.NewBuilder(res, parser, depgraph.Options{
		Workers:      opts.Workers,
		ReportMisses: opts.ReportMisses,
		OnDiagnostic: opts.OnDiagnostic,
	})
	g, err := b.Build(ctx, ids)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
