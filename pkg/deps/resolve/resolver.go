package resolve

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Outcome classifies a resolution.
type Outcome uint8

const (
	// External means the specifier does not name a project source file.
	External Outcome = iota
	// Resolved means the specifier names the file in Result.Path.
	Resolved
)

func (o Outcome) String() string {
	if o == Resolved {
		return "resolved"
	}
	return "external"
}

// Result is the outcome of resolving one specifier.
type Result struct {
	Outcome Outcome

	// Path is the canonical path of the resolved file.
	Path string

	// Miss is set for external results of relative, absolute or aliased
	// specifiers that found no file. Bare package names never set it.
	Miss bool
}

// DefaultMemoSize bounds the resolver's probe and canonicalization memos.
const DefaultMemoSize = 8192

// jsCounterparts lists the TypeScript sources a compiled-extension specifier
// may refer to, as written in ESM TypeScript projects.
var jsCounterparts = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// Resolver resolves specifiers against a Context. It only reads the
// filesystem and is safe for concurrent use. Stat and symlink results are
// memoized for the resolver's lifetime, so a Resolver should not outlive
// changes to the tree it inspects.
type Resolver struct {
	ctx     Context
	exts    map[string]bool
	isFile  *lru.Cache[string, bool]
	canonic *lru.Cache[string, string]
}

// New creates a resolver. The context is normalized with WithDefaults.
func New(c Context) (*Resolver, error) {
	return NewWithMemo(c, DefaultMemoSize)
}

// NewWithMemo creates a resolver whose memos hold up to size entries each.
func NewWithMemo(c Context, size int) (*Resolver, error) {
	norm, err := c.WithDefaults()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultMemoSize
	}
	isFile, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	canonic, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	exts := make(map[string]bool, len(norm.Extensions))
	for _, e := range norm.Extensions {
		exts[e] = true
	}
	return &Resolver{ctx: norm, exts: exts, isFile: isFile, canonic: canonic}, nil
}

// Context returns the normalized context.
func (r *Resolver) Context() Context { return r.ctx }

// IsSource reports whether path has one of the configured extensions.
func (r *Resolver) IsSource(path string) bool {
	return r.exts[filepath.Ext(path)]
}

// Resolve resolves spec as written in the file from (a canonical path).
// Resolving the same pair twice yields the same result.
func (r *Resolver) Resolve(spec, from string) Result {
	if spec == "" || r.external(spec) {
		return Result{Outcome: External}
	}

	dir := isDirectory(spec)
	candidates := r.candidates(spec, from)
	if candidates == nil {
		// Bare specifiers under baseUrl fall back to packages, so no miss.
		if r.ctx.BaseURL != "" {
			if path, ok := r.probe(filepath.Join(r.ctx.BaseURL, filepath.FromSlash(spec)), dir); ok && r.IsSource(path) {
				return Result{Outcome: Resolved, Path: r.Canonical(path)}
			}
		}
		return Result{Outcome: External}
	}

	for _, c := range candidates {
		path, ok := r.probe(c, dir)
		if !ok {
			continue
		}
		if !r.IsSource(path) {
			return Result{Outcome: External}
		}
		return Result{Outcome: Resolved, Path: r.Canonical(path)}
	}
	return Result{Outcome: External, Miss: true}
}

// Canonical normalizes path into a file identifier: absolute, cleaned and
// with symlinks evaluated. Paths that cannot be evaluated are returned
// cleaned.
func (r *Resolver) Canonical(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.ctx.Root, path)
	}
	path = filepath.Clean(path)
	if c, ok := r.canonic.Get(path); ok {
		return c
	}
	c := path
	if real, err := filepath.EvalSymlinks(path); err == nil {
		c = real
	}
	r.canonic.Add(path, c)
	return c
}

func (r *Resolver) external(spec string) bool {
	for _, p := range builtinExternal {
		if strings.HasPrefix(spec, p) {
			return true
		}
	}
	for _, root := range r.ctx.External {
		if spec == root || strings.HasPrefix(spec, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
		if strings.HasSuffix(root, ":") && strings.HasPrefix(spec, root) {
			return true
		}
	}
	return false
}

// candidates returns the paths spec may refer to, or nil for a bare
// specifier. Only the longest matching alias is consulted.
func (r *Resolver) candidates(spec, from string) []string {
	for _, a := range r.ctx.Aliases {
		rest, ok := a.match(spec)
		if !ok {
			continue
		}
		out := make([]string, 0, len(a.Targets))
		for _, t := range a.Targets {
			out = append(out, filepath.FromSlash(a.expand(t, rest)))
		}
		return out
	}
	switch {
	case isRelative(spec):
		return []string{filepath.Join(filepath.Dir(from), filepath.FromSlash(spec))}
	case strings.HasPrefix(spec, "/"):
		return []string{r.reroot(filepath.FromSlash(spec))}
	}
	return nil
}

// reroot keeps absolute paths inside the project root and moves all others
// under it.
func (r *Resolver) reroot(p string) string {
	if rel, err := filepath.Rel(r.ctx.Root, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.Join(r.ctx.Root, p)
}

// probe finds the file a path refers to: the path itself when it is a
// source file, the path plus a configured extension, a TypeScript source for
// a compiled extension, a directory index, and last the path itself when it
// is some other file. A directory specifier only probes the index.
func (r *Resolver) probe(p string, dir bool) (string, bool) {
	if dir {
		return r.index(p)
	}
	if r.IsSource(p) && r.file(p) {
		return p, true
	}
	for _, ext := range r.ctx.Extensions {
		if r.file(p + ext) {
			return p + ext, true
		}
	}
	if ext := filepath.Ext(p); ext != "" {
		base := strings.TrimSuffix(p, ext)
		for _, alt := range jsCounterparts[ext] {
			if r.exts[alt] && r.file(base+alt) {
				return base + alt, true
			}
		}
	}
	if index, ok := r.index(p); ok {
		return index, true
	}
	if r.file(p) {
		return p, true
	}
	return "", false
}

// index finds the index file of directory p.
func (r *Resolver) index(p string) (string, bool) {
	for _, ext := range r.ctx.Extensions {
		index := filepath.Join(p, "index"+ext)
		if r.file(index) {
			return index, true
		}
	}
	return "", false
}

// file reports whether p exists and is not a directory.
func (r *Resolver) file(p string) bool {
	if ok, hit := r.isFile.Get(p); hit {
		return ok
	}
	info, err := os.Stat(p)
	ok := err == nil && !info.IsDir()
	r.isFile.Add(p, ok)
	return ok
}

// isDirectory reports whether spec can only name a directory: ".", ".."
// or a path ending in "/".
func isDirectory(spec string) bool {
	return spec == "." || spec == ".." || strings.HasSuffix(spec, "/") ||
		strings.HasSuffix(spec, "/.") || strings.HasSuffix(spec, "/..")
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
