package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/route"
)

const (
	defaultFontFamily = "system-ui, -apple-system, sans-serif"
	labelGap          = 6.0
	labelFontSize     = 12.0
	headerFontSize    = 13.0
	headerGap         = 12.0
)

const hoverCSS = `
    .link { fill: none; stroke-opacity: 0.45; transition: stroke-opacity 0.15s ease; }
    .link:hover { stroke-opacity: 0.7; }
    .link.dim { stroke-opacity: 0.08; }
    .node { transition: opacity 0.15s ease; }
    .node.dim { opacity: 0.3; }
    .node rect { cursor: pointer; }
    .label { pointer-events: none; }`

// The rules mirror package highlight: nothing hovered lights everything, a
// hovered link lights itself and its two endpoint entities, a hovered node
// lights its entity in both columns and every link touching it.
const hoverJS = `
    (function () {
      var links = document.querySelectorAll('.link');
      var nodes = document.querySelectorAll('.node');
      var state = { kind: 'none' };
      function linkOn(l, s) {
        if (s.kind === 'link') return l.dataset.index === s.index;
        if (s.kind === 'node') return l.dataset.source === s.id || l.dataset.target === s.id;
        return true;
      }
      function nodeOn(n, s) {
        if (s.kind === 'link') return n.dataset.id === s.source || n.dataset.id === s.target;
        if (s.kind === 'node') return n.dataset.id === s.id;
        return true;
      }
      function enter(s) {
        if (s.kind === state.kind && s.index === state.index && s.id === state.id) return;
        state = s;
        links.forEach(function (l) { l.classList.toggle('dim', !linkOn(l, s)); });
        nodes.forEach(function (n) { n.classList.toggle('dim', !nodeOn(n, s)); });
      }
      function leave() { enter({ kind: 'none' }); }
      links.forEach(function (l) {
        l.addEventListener('mouseenter', function () { enter({ kind: 'link', index: l.dataset.index, source: l.dataset.source, target: l.dataset.target }); });
        l.addEventListener('mouseleave', leave);
      });
      nodes.forEach(function (n) {
        n.addEventListener('mouseenter', function () { enter({ kind: 'node', id: n.dataset.id }); });
        n.addEventListener('mouseleave', leave);
      });
    })();`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	fontFamily   string
	sourceHeader string
	targetHeader string
	static       bool
	showValues   bool
}

// WithFontFamily sets the CSS font-family for all text.
func WithFontFamily(f string) SVGOption { return func(r *svgRenderer) { r.fontFamily = f } }

// WithHeaders sets the column headers. Empty strings omit a header.
func WithHeaders(source, target string) SVGOption {
	return func(r *svgRenderer) { r.sourceHeader, r.targetHeader = source, target }
}

// WithStatic omits the hover script and styles.
func WithStatic() SVGOption { return func(r *svgRenderer) { r.static = true } }

// WithValues appends each node's total to its label.
func WithValues() SVGOption { return func(r *svgRenderer) { r.showValues = true } }

// RenderSVG renders d as a standalone SVG document.
func RenderSVG(d sankey.Diagram, opts ...SVGOption) []byte {
	r := svgRenderer{
		fontFamily:   defaultFontFamily,
		sourceHeader: "Source",
		targetHeader: "Target",
	}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		d.Width, d.Height, d.Width, d.Height)
	if d.Title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(d.Title))
	}

	r.renderHeaders(&buf, d)
	if d.Empty() {
		fmt.Fprintf(&buf, `  <text class="empty" x="%.2f" y="%.2f" text-anchor="middle" font-family="%s" font-size="%.0f" fill="#6b7280">No flow</text>`+"\n",
			d.Width/2, d.Height/2, EscapeXML(r.fontFamily), labelFontSize)
	}

	buf.WriteString(`  <g class="links">` + "\n")
	for _, l := range d.Links {
		renderLink(&buf, l, d)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="nodes">` + "\n")
	for _, n := range d.Nodes {
		r.renderNode(&buf, n)
	}
	buf.WriteString("  </g>\n")

	if !r.static {
		renderInteraction(&buf)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderHeaders(buf *bytes.Buffer, d sankey.Diagram) {
	cfg := layout.DefaultConfig()
	srcX, tgtX := cfg.Padding, d.Width-cfg.Padding
	y := cfg.Top() - headerGap
	if src := d.Column(layout.Source); len(src) > 0 {
		srcX, y = src[0].X, src[0].Y-headerGap
	}
	if tgt := d.Column(layout.Target); len(tgt) > 0 {
		tgtX = tgt[0].Right()
	}

	font := EscapeXML(r.fontFamily)
	if r.sourceHeader != "" {
		fmt.Fprintf(buf, `  <text class="header" x="%.2f" y="%.2f" font-family="%s" font-size="%.0f" font-weight="600" fill="#374151">%s</text>`+"\n",
			srcX, y, font, headerFontSize, EscapeXML(r.sourceHeader))
	}
	if r.targetHeader != "" {
		fmt.Fprintf(buf, `  <text class="header" x="%.2f" y="%.2f" text-anchor="end" font-family="%s" font-size="%.0f" font-weight="600" fill="#374151">%s</text>`+"\n",
			tgtX, y, font, headerFontSize, EscapeXML(r.targetHeader))
	}
}

func renderLink(buf *bytes.Buffer, l route.Link, d sankey.Diagram) {
	src, tgt := l.SourceID, l.TargetID
	if n, ok := d.Node(l.SourceID, layout.Source); ok {
		src = n.DisplayName
	}
	if n, ok := d.Node(l.TargetID, layout.Target); ok {
		tgt = n.DisplayName
	}
	fmt.Fprintf(buf, `    <path class="link" id="link-%d" data-index="%d" data-source="%s" data-target="%s" d="%s" stroke="%s" stroke-width="%.2f">`,
		l.Index, l.Index, EscapeXML(l.SourceID), EscapeXML(l.TargetID), l.Path.SVG(), l.Color, l.Width)
	fmt.Fprintf(buf, "<title>%s → %s: %s</title></path>\n", EscapeXML(src), EscapeXML(tgt), formatValue(l.Value))
}

func (r svgRenderer) renderNode(buf *bytes.Buffer, n layout.Node) {
	fmt.Fprintf(buf, `    <g class="node" id="node-%s" data-id="%s" data-column="%s">`+"\n",
		EscapeXML(n.Key()), EscapeXML(n.ID), n.Column)
	fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" rx="2"><title>%s: %s</title></rect>`+"\n",
		n.X, n.Y, n.Width, n.Height, n.Color, EscapeXML(n.DisplayName), formatValue(n.TotalValue))

	x, anchor := n.Right()+labelGap, "start"
	if n.Column == layout.Target {
		x, anchor = n.X-labelGap, "end"
	}
	label := n.DisplayName
	if r.showValues {
		label += " (" + formatValue(n.TotalValue) + ")"
	}
	fmt.Fprintf(buf, `      <text class="label" x="%.2f" y="%.2f" text-anchor="%s" dominant-baseline="middle" font-family="%s" font-size="%.0f" fill="#111827">%s</text>`+"\n",
		x, n.CenterY(), anchor, EscapeXML(r.fontFamily), labelFontSize, EscapeXML(label))
	buf.WriteString("    </g>\n")
}

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", hoverCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", hoverJS)
}

// EscapeXML escapes s for use in SVG text and attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
