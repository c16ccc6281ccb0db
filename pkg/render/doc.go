// Package render provides visualization rendering for import graphs.
//
// The [nodelink] subpackage renders a graph as a Graphviz node-link diagram,
// either as DOT source or as SVG. It backs the "pcc graph" command.
//
// [nodelink]: github.com/matzehuels/pcc/pkg/render/nodelink
package render
