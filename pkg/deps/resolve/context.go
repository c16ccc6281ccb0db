// Package resolve maps raw module specifiers to files on disk.
//
// A [Resolver] is built from an immutable [Context] describing one project:
// its root directory, the extensions to probe, path aliases (as declared in
// tsconfig.json "paths"), an optional base URL for bare specifiers, and
// specifier roots that are always external.
//
// Resolution never fails: a specifier either names a project source file
// ([Resolved]) or it does not ([External]). Bare package names, builtins such
// as node:fs, URLs, missing files and non-source assets are all external.
package resolve

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are probed, in order, for extensionless specifiers.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// builtinExternal lists specifier prefixes that never name project files.
var builtinExternal = []string{
	"node:", "bun:", "npm:", "jsr:", "data:", "file:", "http:", "https:",
}

// Alias maps a specifier pattern to one or more target paths.
//
// A pattern ending in "*" matches by prefix and the remainder replaces the
// "*" in each target (or is appended when the target has none). Any other
// pattern must match the whole specifier. Targets are tried in order.
type Alias struct {
	Pattern string
	Targets []string
}

func (a Alias) prefix() string { return strings.TrimSuffix(a.Pattern, "*") }

func (a Alias) wildcard() bool { return strings.HasSuffix(a.Pattern, "*") }

// match reports whether spec matches a, returning the part captured by "*".
func (a Alias) match(spec string) (string, bool) {
	if !a.wildcard() {
		return "", spec == a.Pattern
	}
	if p := a.prefix(); strings.HasPrefix(spec, p) {
		return spec[len(p):], true
	}
	return "", false
}

// expand returns the target path for captured text.
func (a Alias) expand(target, rest string) string {
	if strings.Contains(target, "*") {
		return strings.Replace(target, "*", rest, 1)
	}
	if rest == "" {
		return target
	}
	return filepath.Join(target, filepath.FromSlash(rest))
}

// ParseAlias parses the PATTERN=TARGET form used on the command line.
func ParseAlias(s string) (Alias, error) {
	pattern, target, ok := strings.Cut(s, "=")
	pattern, target = strings.TrimSpace(pattern), strings.TrimSpace(target)
	if !ok || pattern == "" || target == "" {
		return Alias{}, fmt.Errorf("alias %q: want PATTERN=TARGET", s)
	}
	return Alias{Pattern: pattern, Targets: []string{target}}, nil
}

// Context is the per-run resolution configuration.
type Context struct {
	// Root is the project root. Absolute specifiers are taken within it and
	// relative alias targets are joined to it. Defaults to the working
	// directory.
	Root string

	// Extensions are probed in order. Defaults to DefaultExtensions.
	Extensions []string

	// Aliases are matched longest pattern first.
	Aliases []Alias

	// BaseURL, when set, is tried for bare specifiers before they are
	// classified as external (tsconfig compilerOptions.baseUrl).
	BaseURL string

	// External lists specifier roots that are never resolved, such as
	// "react" or "@company/ui". Builtin schemes like "node:" are always
	// external.
	External []string
}

// WithDefaults returns a normalized copy of c: absolute root, default
// extensions, absolute alias targets and aliases ordered longest first.
func (c Context) WithDefaults() (Context, error) {
	out := c
	if out.Root == "" {
		out.Root = "."
	}
	root, err := filepath.Abs(out.Root)
	if err != nil {
		return Context{}, fmt.Errorf("project root: %w", err)
	}
	out.Root = root

	if len(out.Extensions) == 0 {
		out.Extensions = append([]string(nil), DefaultExtensions...)
	} else {
		exts := make([]string, len(out.Extensions))
		for i, e := range out.Extensions {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts[i] = e
		}
		out.Extensions = exts
	}

	if out.BaseURL != "" && !filepath.IsAbs(out.BaseURL) {
		out.BaseURL = filepath.Join(root, out.BaseURL)
	}

	out.Aliases = make([]Alias, len(c.Aliases))
	for i, a := range c.Aliases {
		targets := make([]string, len(a.Targets))
		for j, t := range a.Targets {
			t = filepath.FromSlash(t)
			if !filepath.IsAbs(t) {
				t = filepath.Join(root, t)
			}
			targets[j] = t
		}
		out.Aliases[i] = Alias{Pattern: a.Pattern, Targets: targets}
	}
	sort.SliceStable(out.Aliases, func(i, j int) bool {
		return len(out.Aliases[i].prefix()) > len(out.Aliases[j].prefix())
	})

	out.External = append([]string(nil), c.External...)
	return out, nil
}
