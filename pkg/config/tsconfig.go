package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/matzehuels/pcc/pkg/deps/resolve"
)

// maxExtendsDepth bounds "extends" chains.
const maxExtendsDepth = 8

// TSConfig holds the module-resolution settings of a tsconfig.json.
type TSConfig struct {
	// Path is the file that was loaded.
	Path string

	// BaseURL is the absolute base directory for bare specifiers, or "".
	BaseURL string

	// Paths maps alias patterns to targets, relative to PathsBase.
	Paths map[string][]string

	// PathsBase is the directory "paths" targets are relative to: the
	// effective baseUrl of the declaring file, or that file's directory.
	PathsBase string
}

type rawTSConfig struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadTSConfig reads a tsconfig.json. Comments and trailing commas are
// accepted. Relative "extends" chains are followed and the extending file
// wins; package-name extends are ignored.
func LoadTSConfig(path string) (*TSConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return loadTSConfig(abs, 0)
}

func loadTSConfig(path string, depth int) (*TSConfig, error) {
	if depth > maxExtendsDepth {
		return nil, fmt.Errorf("tsconfig %s: extends chain too deep", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tsconfig: %w", err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("tsconfig %s: %w", path, err)
	}
	var raw rawTSConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("tsconfig %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tc := &TSConfig{Path: path, PathsBase: dir}
	if ext := raw.Extends; strings.HasPrefix(ext, "./") || strings.HasPrefix(ext, "../") {
		parentPath := filepath.Join(dir, filepath.FromSlash(ext))
		if filepath.Ext(parentPath) != ".json" {
			parentPath += ".json"
		}
		parent, err := loadTSConfig(parentPath, depth+1)
		if err != nil {
			return nil, err
		}
		tc.BaseURL, tc.Paths, tc.PathsBase = parent.BaseURL, parent.Paths, parent.PathsBase
	}

	if raw.CompilerOptions.BaseURL != nil {
		tc.BaseURL = filepath.Join(dir, filepath.FromSlash(*raw.CompilerOptions.BaseURL))
	}
	if raw.CompilerOptions.Paths != nil {
		tc.Paths = raw.CompilerOptions.Paths
		tc.PathsBase = dir
		if tc.BaseURL != "" {
			tc.PathsBase = tc.BaseURL
		}
	}
	return tc, nil
}

// Aliases converts "paths" into resolver aliases with absolute targets,
// ordered by pattern.
func (t *TSConfig) Aliases() []resolve.Alias {
	patterns := make([]string, 0, len(t.Paths))
	for p := range t.Paths {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	out := make([]resolve.Alias, 0, len(patterns))
	for _, p := range patterns {
		targets := make([]string, 0, len(t.Paths[p]))
		for _, target := range t.Paths[p] {
			targets = append(targets, filepath.Join(t.PathsBase, filepath.FromSlash(target)))
		}
		out = append(out, resolve.Alias{Pattern: p, Targets: targets})
	}
	return out
}

// ResolutionContext builds the resolver context for a project rooted at
// root. Aliases come from root/package.json "imports", then the tsconfig
// (resolve.tsconfig, else root/tsconfig.json when present), then
// [resolve.aliases]; later sources override earlier ones per pattern.
// Packages declared in root/package.json are external unless an alias
// covers them.
func (c *Config) ResolutionContext(root string) (resolve.Context, error) {
	rc := resolve.Context{
		Root:       root,
		Extensions: c.Resolve.Extensions,
		External:   c.Resolve.External,
	}

	tsPath := c.Resolve.TSConfig
	if tsPath != "" {
		expanded, err := ExpandHome(tsPath)
		if err != nil {
			return resolve.Context{}, err
		}
		if !filepath.IsAbs(expanded) {
			expanded = filepath.Join(root, expanded)
		}
		tsPath = expanded
	} else if p := filepath.Join(root, "tsconfig.json"); fileExists(p) {
		tsPath = p
	}

	byPattern := make(map[string]resolve.Alias)
	var pkg *PackageJSON
	if p := filepath.Join(root, "package.json"); fileExists(p) {
		var err error
		if pkg, err = LoadPackageJSON(p); err != nil {
			return resolve.Context{}, err
		}
		for _, a := range pkg.Aliases() {
			byPattern[a.Pattern] = a
		}
	}
	if tsPath != "" {
		tc, err := LoadTSConfig(tsPath)
		if err != nil {
			return resolve.Context{}, err
		}
		rc.BaseURL = tc.BaseURL
		for _, a := range tc.Aliases() {
			byPattern[a.Pattern] = a
		}
	}
	for pattern, target := range c.Resolve.Aliases {
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, filepath.FromSlash(target))
		}
		byPattern[pattern] = resolve.Alias{Pattern: pattern, Targets: []string{target}}
	}

	patterns := make([]string, 0, len(byPattern))
	for p := range byPattern {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	for _, p := range patterns {
		rc.Aliases = append(rc.Aliases, byPattern[p])
	}
	if pkg != nil {
		rc.External = slices.Clone(rc.External)
		for _, dep := range pkg.Dependencies {
			if !shadowed(dep, rc.Aliases) {
				rc.External = append(rc.External, dep)
			}
		}
	}
	return rc, nil
}

// shadowed reports whether an alias matches dep or a subpath of it.
func shadowed(dep string, aliases []resolve.Alias) bool {
	for _, a := range aliases {
		prefix := strings.TrimSuffix(a.Pattern, "*")
		if a.Pattern == dep || strings.HasPrefix(prefix, dep+"/") {
			return true
		}
		if strings.HasSuffix(a.Pattern, "*") && strings.HasPrefix(dep, prefix) {
			return true
		}
	}
	return false
}
