// Package route turns flow edges into curved, stacked links between the
// nodes produced by package layout.
//
// Links are routed source node by source node, in layout order; within a
// source node they follow input order. Each node keeps a running stacking
// offset, so links sharing a node sit side by side without overlapping and
// keep the order in which their edges were encountered. The offset of a
// target node is shared by every source that feeds it.
package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

const (
	// DefaultMinLinkWidth is the thinnest a link is ever drawn.
	DefaultMinLinkWidth = 3.0
	// DefaultCurvature is the fraction of the horizontal span used to
	// offset Bezier control points from their endpoints.
	DefaultCurvature = 0.5
)

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Bezier is a cubic Bezier curve.
type Bezier struct {
	Start Point `json:"start" bson:"start"`
	C1    Point `json:"c1" bson:"c1"`
	C2    Point `json:"c2" bson:"c2"`
	End   Point `json:"end" bson:"end"`
}

// SVG returns the curve as an SVG path "d" attribute.
func (b Bezier) SVG() string {
	var sb strings.Builder
	sb.WriteString("M")
	writePoint(&sb, b.Start)
	sb.WriteString(" C")
	writePoint(&sb, b.C1)
	sb.WriteString(",")
	writePoint(&sb, b.C2)
	sb.WriteString(",")
	writePoint(&sb, b.End)
	return sb.String()
}

func writePoint(sb *strings.Builder, p Point) {
	sb.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
	sb.WriteString(" ")
	sb.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
}

// At evaluates the curve at parameter t in [0, 1].
func (b Bezier) At(t float64) Point {
	u := 1 - t
	w0, w1, w2, w3 := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: w0*b.Start.X + w1*b.C1.X + w2*b.C2.X + w3*b.End.X,
		Y: w0*b.Start.Y + w1*b.C1.Y + w2*b.C2.Y + w3*b.End.Y,
	}
}

// Link is one routed edge.
type Link struct {
	// Index identifies the link within its diagram.
	Index int `json:"index" bson:"index"`

	SourceID string  `json:"source_id" bson:"source_id"`
	TargetID string  `json:"target_id" bson:"target_id"`
	Value    float64 `json:"value" bson:"value"`
	Width    float64 `json:"width" bson:"width"`
	Path     Bezier  `json:"path" bson:"path"`

	SourceAnchorY float64 `json:"source_anchor_y" bson:"source_anchor_y"`
	TargetAnchorY float64 `json:"target_anchor_y" bson:"target_anchor_y"`

	Color string `json:"color" bson:"color"`
}

// String returns a short description for logs and terminal output.
func (l Link) String() string {
	return fmt.Sprintf("%s → %s (%g)", l.SourceID, l.TargetID, l.Value)
}

// Option configures [Route].
type Option func(*router)

type router struct {
	minWidth  float64
	curvature float64
}

// WithMinWidth sets the link width floor.
func WithMinWidth(w float64) Option {
	return func(r *router) {
		if w > 0 {
			r.minWidth = w
		}
	}
}

// WithCurvature sets the control point offset as a fraction of the
// horizontal span.
func WithCurvature(c float64) Option {
	return func(r *router) {
		if c >= 0 {
			r.curvature = c
		}
	}
}

// Route computes one link per surviving edge of agg, anchored to nodes.
// Edges whose source or target node is absent from nodes are skipped.
func Route(agg flow.Result, nodes []layout.Node, opts ...Option) []Link {
	r := router{minWidth: DefaultMinLinkWidth, curvature: DefaultCurvature}
	for _, opt := range opts {
		opt(&r)
	}

	outgoing := make(map[string][]flow.Edge, agg.SourceTotals.Len())
	for _, e := range agg.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e)
	}

	targets := make(map[string]layout.Node)
	for _, n := range nodes {
		if n.Column == layout.Target {
			targets[n.ID] = n
		}
	}

	links := make([]Link, 0, len(agg.Edges))
	tOffset := make(map[string]float64, len(targets))
	for _, src := range nodes {
		if src.Column != layout.Source {
			continue
		}
		total := flow.Denominator(agg.SourceTotals.Value(src.ID))
		var sOffset float64
		for _, e := range outgoing[src.ID] {
			tgt, ok := targets[e.Dest]
			if !ok {
				continue
			}
			width := max(e.Qty/total*src.Height, r.minWidth)
			sy := src.Y + sOffset + width/2
			ty := tgt.Y + tOffset[e.Dest] + width/2

			links = append(links, Link{
				Index:         len(links),
				SourceID:      src.ID,
				TargetID:      tgt.ID,
				Value:         e.Qty,
				Width:         width,
				Path:          r.curve(Point{X: src.Right(), Y: sy}, Point{X: tgt.X, Y: ty}),
				SourceAnchorY: sy,
				TargetAnchorY: ty,
				Color:         theme.LinkColor(src.Color, tgt.Color),
			})

			sOffset += width
			tOffset[e.Dest] += width
		}
	}
	return links
}

// curve builds a horizontal S-curve: both control points share their
// endpoint's y, so the link leaves and enters nodes horizontally.
func (r router) curve(from, to Point) Bezier {
	dx := (to.X - from.X) * r.curvature
	return Bezier{
		Start: from,
		C1:    Point{X: from.X + dx, Y: from.Y},
		C2:    Point{X: to.X - dx, Y: to.Y},
		End:   to,
	}
}
