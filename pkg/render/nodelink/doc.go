// Package nodelink draws the reference graph of an ADM document or frame as
// a node-link diagram.
//
// # Usage
//
// Convert a document to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(doc, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Each entity is a node labelled with its ID and name; each reference is an
// edge. Kinds are told apart by shape and colour. The graph runs left to
// right, from programmes down to track UIDs and channel formats.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. The DOT source can also be processed with external Graphviz
// tools.
package nodelink
