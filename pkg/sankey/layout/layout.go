package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

const eps = 1e-9

// Result is the output of [Build].
type Result struct {
	// Nodes lists the source column top to bottom, then the target column.
	Nodes []Node

	CanvasWidth    float64
	CanvasHeight   float64
	InternalHeight float64
}

// Column returns the nodes of col in stacking order.
func (r Result) Column(col Column) []Node {
	var out []Node
	for _, n := range r.Nodes {
		if n.Column == col {
			out = append(out, n)
		}
	}
	return out
}

// Find returns the node for entity id in col.
func (r Result) Find(id string, col Column) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id && n.Column == col {
			return n, true
		}
	}
	return Node{}, false
}

// Option configures [Build].
type Option func(*builder)

type builder struct {
	cfg      Config
	resolver names.Resolver
	theme    theme.Theme
}

// WithConfig replaces the geometry constants. Zero fields take defaults.
func WithConfig(c Config) Option { return func(b *builder) { b.cfg = c.WithDefaults() } }

// WithWidth sets the canvas width.
func WithWidth(w float64) Option {
	return func(b *builder) {
		if w > 0 {
			b.cfg.Width = w
		}
	}
}

// WithResolver sets the display-name resolver. Unresolved ids are shown raw.
func WithResolver(r names.Resolver) Option { return func(b *builder) { b.resolver = r } }

// WithTheme sets the palette used for node colors.
func WithTheme(t theme.Theme) Option { return func(b *builder) { b.theme = t.WithDefaults() } }

// Build lays out the nodes of both columns.
//
// An aggregate without surviving edges yields no nodes and a canvas of
// exactly Config.MinHeight.
func Build(agg flow.Result, opts ...Option) Result {
	b := builder{cfg: DefaultConfig(), theme: theme.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	cfg := b.cfg

	if agg.Empty() {
		return Result{CanvasWidth: cfg.Width, CanvasHeight: cfg.MinHeight}
	}

	src := sortedIDs(agg.SourceTotals)
	tgt := sortedIDs(agg.TargetTotals)

	internal := max(cfg.requirement(len(src)), cfg.requirement(len(tgt)), cfg.MinHeight)
	// One scale for both columns, from the longer column's gap count instead
	// of each column's own, so link widths derived from source heights also
	// fit the target nodes they stack against.
	usable := internal - float64(max(len(src), len(tgt)))*cfg.NodeGap
	total := flow.Denominator(agg.TotalFlow)

	nodes := make([]Node, 0, len(src)+len(tgt))
	nodes = append(nodes, b.column(Source, src, agg.SourceTotals, total, internal, usable)...)
	nodes = append(nodes, b.column(Target, tgt, agg.TargetTotals, total, internal, usable)...)

	return Result{
		Nodes:          nodes,
		CanvasWidth:    cfg.Width,
		CanvasHeight:   cfg.CanvasHeight(internal),
		InternalHeight: internal,
	}
}

// sortedIDs orders ids by total descending; equal totals keep encounter order.
func sortedIDs(t flow.Totals) []string {
	ids := t.IDs()
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(t.Value(b), t.Value(a))
	})
	return ids
}

func (b *builder) column(col Column, ids []string, totals flow.Totals, total, internal, usable float64) []Node {
	cfg := b.cfg
	heights := make([]float64, len(ids))
	for i, id := range ids {
		heights[i] = max(totals.Value(id)/total*usable*cfg.Slack, cfg.MinNodeHeight)
	}
	fit(heights, internal-float64(len(ids))*cfg.NodeGap, cfg.MinNodeHeight)

	nodes := make([]Node, len(ids))
	y := cfg.Top()
	for i, id := range ids {
		color := b.theme.SourceColor(i)
		if col == Target {
			color = b.theme.TargetColor(i)
		}
		nodes[i] = Node{
			ID:          id,
			DisplayName: names.Display(b.resolver, id),
			Column:      col,
			X:           cfg.ColumnX(col),
			Y:           y,
			Width:       cfg.NodeWidth,
			Height:      heights[i],
			Color:       color,
			TotalValue:  totals.Value(id),
			Rank:        i,
		}
		y += heights[i] + cfg.NodeGap
	}
	return nodes
}

// fit shrinks the part of each height above floor by a common factor until
// the heights sum to at most avail. Order between heights is preserved.
func fit(heights []float64, avail, floor float64) {
	var sum float64
	for _, h := range heights {
		sum += h
	}
	if sum <= avail+eps {
		return
	}
	base := floor * float64(len(heights))
	excess := sum - base
	if excess <= eps {
		return
	}
	scale := max(avail-base, 0) / excess
	for i, h := range heights {
		heights[i] = floor + (h-floor)*scale
	}
}
