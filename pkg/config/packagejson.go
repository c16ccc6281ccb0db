package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/pcc/pkg/deps/resolve"
)

// importConditions are tried in order for conditional "imports" entries.
var importConditions = []string{"import", "module", "default", "require", "node"}

// PackageJSON holds the parts of a package.json that affect resolution.
type PackageJSON struct {
	// Path is the file that was loaded.
	Path string

	// Name is the package name.
	Name string

	// Dependencies lists dependencies, devDependencies, peerDependencies
	// and optionalDependencies, sorted and deduplicated.
	Dependencies []string

	// Imports maps "#" subpath patterns to targets relative to the
	// package directory.
	Imports map[string]string
}

type packageFile struct {
	Name                 string                     `json:"name"`
	Dependencies         map[string]string          `json:"dependencies"`
	DevDependencies      map[string]string          `json:"devDependencies"`
	PeerDependencies     map[string]string          `json:"peerDependencies"`
	OptionalDependencies map[string]string          `json:"optionalDependencies"`
	Imports              map[string]json.RawMessage `json:"imports"`
}

// LoadPackageJSON reads a package.json.
func LoadPackageJSON(path string) (*PackageJSON, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read package.json: %w", err)
	}
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("package.json %s: %w", abs, err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies, pkg.OptionalDependencies} {
		for name := range m {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	imports := make(map[string]string)
	for pattern, raw := range pkg.Imports {
		if !strings.HasPrefix(pattern, "#") {
			continue
		}
		if target, ok := importTarget(raw); ok {
			imports[pattern] = target
		}
	}

	return &PackageJSON{Path: abs, Name: pkg.Name, Dependencies: names, Imports: imports}, nil
}

// importTarget picks the local target of an "imports" entry: a plain
// string or the first matching condition of an object. Package targets
// and null entries are skipped.
func importTarget(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, strings.HasPrefix(s, "./")
	}
	var conds map[string]json.RawMessage
	if err := json.Unmarshal(raw, &conds); err != nil {
		return "", false
	}
	for _, c := range importConditions {
		if v, ok := conds[c]; ok {
			return importTarget(v)
		}
	}
	return "", false
}

// Aliases converts "imports" into resolver aliases with absolute targets,
// ordered by pattern.
func (p *PackageJSON) Aliases() []resolve.Alias {
	dir := filepath.Dir(p.Path)
	patterns := make([]string, 0, len(p.Imports))
	for pattern := range p.Imports {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	out := make([]resolve.Alias, 0, len(patterns))
	for _, pattern := range patterns {
		target := filepath.Join(dir, filepath.FromSlash(p.Imports[pattern]))
		out = append(out, resolve.Alias{Pattern: pattern, Targets: []string{target}})
	}
	return out
}
