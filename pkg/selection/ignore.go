package selection

import (
	"bufio"
	"io"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// rule is one gitignore-style pattern.
type rule struct {
	pattern  string
	base     string // slash-separated directory the rule was declared in, "" for the root
	negate   bool
	dirOnly  bool
	anchored bool
}

// parseRule converts a pattern line. Blank lines and comments yield false.
//
// Patterns without a slash match a name at any depth; patterns with a
// leading or inner slash are anchored to base. A trailing slash restricts
// the rule to directories, which also excludes everything beneath them.
func parseRule(line, base string) (rule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}
	r := rule{base: base}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.Contains(line, "/") {
		r.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return rule{}, false
	}
	r.pattern = line
	return r, true
}

func (r rule) match(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if r.base != "" {
		if !strings.HasPrefix(rel, r.base+"/") {
			return false
		}
		rel = rel[len(r.base)+1:]
	}
	subject := rel
	if !r.anchored {
		subject = path.Base(rel)
	}
	ok, err := doublestar.Match(r.pattern, subject)
	return err == nil && ok
}

// matcher evaluates rules in order; the last matching rule wins.
type matcher struct {
	rules []rule
}

func (m *matcher) add(line, base string) {
	if r, ok := parseRule(line, base); ok {
		m.rules = append(m.rules, r)
	}
}

func (m *matcher) read(r io.Reader, base string) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m.add(sc.Text(), base)
	}
	return sc.Err()
}

func (m *matcher) readFile(name, base string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.read(f, base)
}

// matchOne reports whether rel itself is ignored, ignoring its ancestors.
func (m *matcher) matchOne(rel string, isDir bool) bool {
	ignored := false
	for _, r := range m.rules {
		if r.match(rel, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ignoredDir reports whether the directory rel or any directory above it is
// ignored.
func (m *matcher) ignoredDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i <= len(parts); i++ {
		if m.matchOne(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return false
}

// ignored reports whether the file at rel or any directory above it is
// ignored.
func (m *matcher) ignored(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if m.matchOne(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return m.matchOne(rel, false)
}
