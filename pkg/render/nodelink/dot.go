package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pcc/pkg/depgraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Root makes labels relative to this directory when set. Files outside
	// Root keep their absolute path.
	Root string

	// Detailed adds the number of importers to dependency labels.
	Detailed bool
}

// ToDOT converts an import graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Entry files are drawn with a bold blue outline. The closing edge of each
// detected cycle is drawn dashed and red; a file importing itself gets a
// red self loop.
func ToDOT(g *depgraph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range g.Files() {
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, id, opts))}
		if g.IsEntry(id) {
			attrs = append(attrs, "color=\"#2563eb\"", "penwidth=2", "fillcolor=\"#eff6ff\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	closing := make(map[[2]depgraph.FileID]bool)
	for _, c := range g.Cycles() {
		closing[[2]depgraph.FileID{c.From, c.To}] = true
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if closing[[2]depgraph.FileID{e.From, e.To}] {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, style=dashed];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}
	for _, c := range g.Cycles() {
		if c.From == c.To {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, style=dashed];\n", c.From, c.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *depgraph.Graph, id depgraph.FileID, opts Options) string {
	label := string(id)
	if opts.Root != "" {
		if rel, err := filepath.Rel(opts.Root, label); err == nil && !strings.HasPrefix(rel, "..") {
			label = filepath.ToSlash(rel)
		}
	}
	if !opts.Detailed || g.IsEntry(id) {
		return label
	}
	return fmt.Sprintf("%s\nimporters: %d", label, len(g.Importers(id)))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one that
// scales from a zero origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(header))
}
