// Package nodelink renders import graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a [depgraph.Graph] into Graphviz DOT source: one box per
// file in discovery order and one arrow per import. Entry files are
// highlighted, and the edge that closes each cycle is drawn dashed in red so
// circular imports stand out.
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Root: root})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [RenderSVG] uses the WebAssembly build of Graphviz bundled with
// go-graphviz, so no system installation is required.
package nodelink
