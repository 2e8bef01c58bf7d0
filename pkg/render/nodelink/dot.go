package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/sadm/pkg/adm"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds timing, type definition and block count to node labels.
	// When false, only the ID and name are shown.
	Detailed bool

	// Title is drawn above the graph when set, e.g. a frame's window.
	Title string
}

// kindStyles gives each entity kind its own shape and fill.
var kindStyles = map[adm.Kind]string{
	adm.KindProgramme:     `shape=box, fillcolor="#f4d35e"`,
	adm.KindContent:       `shape=box, fillcolor="#ee964b"`,
	adm.KindObject:        `shape=box, fillcolor="#f95738"`,
	adm.KindPackFormat:    `shape=folder, fillcolor="#a8dadc"`,
	adm.KindChannelFormat: `shape=component, fillcolor="#457b9d", fontcolor=white`,
	adm.KindStreamFormat:  `shape=box, fillcolor="#e9ecef"`,
	adm.KindTrackFormat:   `shape=box, fillcolor="#e9ecef"`,
	adm.KindTrackUID:      `shape=ellipse, fillcolor=white`,
}

// ToDOT converts a document's reference graph to Graphviz DOT. Nodes are
// written in document order grouped by kind, edges follow references.
func ToDOT(doc *adm.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph ADM {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"rounded,filled\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	entities := doc.All()
	for _, e := range entities {
		fmt.Fprintf(&buf, "  %q [label=%q, %s];\n", e.ID(), fmtLabel(e, opts.Detailed), kindStyles[e.Kind()])
	}

	buf.WriteString("\n")
	for _, e := range entities {
		for _, ref := range e.AllReferences() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.ID(), ref)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(e *adm.Entity, detailed bool) string {
	label := string(e.ID())
	if e.Name != "" {
		label += "\n" + e.Name
	}
	if !detailed {
		return label
	}

	var parts []string
	if d, ok := e.Start(); ok {
		parts = append(parts, "start: "+adm.FormatTimecode(d))
	}
	if d, ok := e.End(); ok {
		parts = append(parts, "end: "+adm.FormatTimecode(d))
	}
	if d, ok := e.Duration(); ok {
		parts = append(parts, "duration: "+adm.FormatTimecode(d))
	}
	if t := e.TypeDefinition; t != adm.TypeUndefined {
		parts = append(parts, "type: "+t.String())
	}
	if e.Kind() == adm.KindChannelFormat {
		parts = append(parts, fmt.Sprintf("blocks: %d", len(e.BlockFormats())))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
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

// normalizeViewBox replaces Graphviz's point-sized svg tag with one that
// scales with its container.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
