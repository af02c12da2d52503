package sink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Detailed adds totals to node labels and values to edge labels.
	Detailed bool
}

// ToDOT converts d into a left-to-right Graphviz digraph. Source and target
// columns become two ranks; pen widths scale with link width.
func ToDOT(d sankey.Diagram, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=2;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if d.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", d.Title)
	}
	buf.WriteString("\n")

	for _, col := range []layout.Column{layout.Source, layout.Target} {
		fmt.Fprintf(&buf, "  subgraph %s {\n    rank=same;\n", col)
		for _, n := range d.Column(col) {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.Key(), strings.Join(fmtNodeAttrs(n, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, l := range d.Links {
		attrs := []string{
			fmt.Sprintf("color=%q", l.Color),
			fmt.Sprintf("penwidth=%.2f", max(l.Width/4, 1)),
			"arrowhead=none",
		}
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", formatValue(l.Value)))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n",
			layout.Node{ID: l.SourceID, Column: layout.Source}.Key(),
			layout.Node{ID: l.TargetID, Column: layout.Target}.Key(),
			strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtNodeAttrs(n layout.Node, detailed bool) []string {
	label := n.DisplayName
	if detailed {
		label += "\n" + formatValue(n.TotalValue)
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", n.Color),
	}
}

// RenderGraphviz lays out a DOT graph with Graphviz and returns SVG.
func RenderGraphviz(ctx context.Context, dot string) ([]byte, error) {
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

// normalizeViewBox rewrites Graphviz's root element so the drawing starts at
// the origin and carries pixel dimensions.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
