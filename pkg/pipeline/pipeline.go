// Package pipeline runs pcc end to end.
//
// This package implements the select → build → assemble → encode pipeline
// used by the CLI. By centralizing it, the combine and graph commands share
// the same file selection, resolver setup and caching.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: expand paths into target, reference and main files, applying
//     ignore patterns
//  2. Build: walk imports from the entry files into a [depgraph.Graph]
//     (only with Options.Deps)
//  3. Assemble: read every file into a [document.Document]
//  4. Encode: serialize the document as XML, JSON or YAML
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Paths:    []string{"src/main.ts"},
//	    Deps:     true,
//	    Relative: true,
//	})
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(result.Output)
//
// The graph command runs only the first two stages:
//
//	g, err := runner.Graph(ctx, opts)
//	svg, err := runner.RenderGraph(ctx, g, pipeline.GraphFormatSVG, nodelink.Options{})
package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pcc/pkg/depgraph"
	"github.com/matzehuels/pcc/pkg/deps/resolve"
	"github.com/matzehuels/pcc/pkg/document"
	"github.com/matzehuels/pcc/pkg/errors"
)

// Graph output formats.
const (
	GraphFormatDOT  = "dot"
	GraphFormatSVG  = "svg"
	GraphFormatJSON = "json"
)

// ValidFormats is the set of supported document formats.
var ValidFormats = map[string]bool{
	document.FormatXML:  true,
	document.FormatJSON: true,
	document.FormatYAML: true,
}

// ValidGraphFormats is the set of supported graph formats.
var ValidGraphFormats = map[string]bool{
	GraphFormatDOT:  true,
	GraphFormatSVG:  true,
	GraphFormatJSON: true,
}

// ValidateFormat checks that a document format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: xml, json, yaml)", format)
	}
	return nil
}

// ValidateGraphFormat checks that a graph format is valid.
func ValidateGraphFormat(format string) error {
	if !ValidGraphFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid graph format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// Root is the project directory. Display paths, ignore patterns and the
	// resolver are relative to it. Defaults to the working directory.
	// Symlinks in it are evaluated, matching the graph's file ids.
	Root string

	// Paths are files or directories to include as main files.
	Paths []string
	// Targets are files to be modified, listed first.
	Targets []string
	// References are context-only files. They are not followed.
	References []string

	// Deps follows imports from targets and main files.
	Deps bool
	// Format is the document format. Defaults to xml.
	Format string
	// Relative lists files relative to Root.
	Relative bool

	IgnorePatterns []string
	IgnoreFile     string
	NoGitignore    bool

	// Resolve configures module resolution. Its Root defaults to Root.
	Resolve resolve.Context

	Workers      int
	ReportMisses bool
	// CacheTTL bounds how long parsed specifiers are cached. Defaults to
	// cache.DefaultTTL.
	CacheTTL time.Duration

	// OnDiagnostic receives build diagnostics as they happen.
	OnDiagnostic func(depgraph.Diagnostic)

	// Logger defaults to the runner's logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the import graph, or nil when dependencies were not followed.
	Graph *depgraph.Graph

	// Document is the assembled output before encoding.
	Document *document.Document

	// Output is the encoded document.
	Output []byte

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Files        int
	Dependencies int
	Cycles       int
	Diagnostics  int
	SelectTime   time.Duration
	BuildTime    time.Duration
	AssembleTime time.Duration
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Paths) == 0 && len(o.Targets) == 0 && len(o.References) == 0 {
		return errors.New(errors.ErrCodeNoEntryPoints, "either paths or --target/--reference must be specified")
	}
	if o.Format == "" {
		o.Format = document.FormatXML
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "working directory")
		}
		o.Root = wd
	}
	o.Root = canonicalPath(o.Root)
	if o.Resolve.Root == "" {
		o.Resolve.Root = o.Root
	} else {
		o.Resolve.Root = canonicalPath(o.Resolve.Root)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}


// canonicalPath returns p absolute with symlinks evaluated, or absolute and
// cleaned when it cannot be evaluated.
func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
