// Package selection turns command-line paths into the ordered list of files
// to include, applying ignore patterns.
//
// Patterns follow .gitignore syntax, matched with doublestar globs:
//
//	*.test.ts      any file named like this, at any depth
//	dist/          the dist directory wherever it appears, and its contents
//	/build         build at the root only
//	src/**/gen     anchored glob
//	!keep.ts       re-include a previously ignored name
//
// Directories are walked in lexical order. Hidden entries (names starting
// with ".") are skipped and every .gitignore found on the way is honored
// for the directory it lives in.
package selection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Options configures a Selector.
type Options struct {
	// Root is the directory patterns are relative to. Defaults to the
	// working directory.
	Root string

	// Patterns are extra ignore patterns, applied after ignore files.
	Patterns []string

	// IgnoreFile is an additional file in .gitignore format. It must exist
	// when set.
	IgnoreFile string

	// NoGitignore disables reading .gitignore files.
	NoGitignore bool

	// Hidden includes dot-files and dot-directories in directory walks.
	Hidden bool
}

// Selector expands paths and answers ignore queries. It is not safe for
// concurrent use while Expand is running.
type Selector struct {
	root string
	opts Options
	m    *matcher
}

// New creates a selector, reading Root/.gitignore and Options.IgnoreFile.
func New(opts Options) (*Selector, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	s := &Selector{root: root, opts: opts, m: &matcher{}}

	if !opts.NoGitignore {
		err := s.m.readFile(filepath.Join(root, ".gitignore"), "")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .gitignore: %w", err)
		}
	}
	if opts.IgnoreFile != "" {
		if err := s.m.readFile(opts.IgnoreFile, ""); err != nil {
			return nil, fmt.Errorf("read ignore file: %w", err)
		}
	}
	for _, p := range opts.Patterns {
		s.m.add(p, "")
	}
	return s, nil
}

// Root returns the absolute root directory.
func (s *Selector) Root() string { return s.root }

// Ignored reports whether path (absolute, or relative to the root) is
// excluded by any pattern.
func (s *Selector) Ignored(path string) bool {
	rel, ok := s.rel(path)
	if !ok {
		return s.m.matchOne(filepath.ToSlash(filepath.Base(path)), false)
	}
	return s.m.ignored(rel)
}

// Expand returns the absolute files named by paths, in order and without
// duplicates. Files are kept unless ignored; directories are walked.
// A path that does not exist is an error.
func (s *Selector) Expand(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		abs, err := s.abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if !info.IsDir() {
			if !s.Ignored(abs) {
				add(abs)
			}
			continue
		}
		if err := s.walk(abs, add); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Selector) walk(dir string, add func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && !s.opts.Hidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, inside := s.rel(path)
		if d.IsDir() {
			if !inside || rel == "." {
				return nil
			}
			if s.m.ignoredDir(rel) {
				return filepath.SkipDir
			}
			if !s.opts.NoGitignore {
				name := filepath.Join(path, ".gitignore")
				if err := s.m.readFile(name, rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("read %s: %w", name, err)
				}
			}
			return nil
		}
		if !regularFile(path, d) {
			return nil
		}
		if inside && s.m.ignored(rel) {
			return nil
		}
		if !inside && s.m.matchOne(filepath.Base(path), false) {
			return nil
		}
		add(path)
		return nil
	})
}

// regularFile reports whether d is a file, following symlinks.
func regularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (s *Selector) abs(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(s.root, p), nil
}

// rel returns path relative to the root in slash form, and whether path lies
// inside the root.
func (s *Selector) rel(path string) (string, bool) {
	abs, err := s.abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
