package sink

import (
	"context"
	"slices"

	"github.com/matzehuels/flowview/pkg/render"
	"github.com/matzehuels/flowview/pkg/sankey"
)

// ConvertOption configures [RenderPNG] and [RenderPDF].
type ConvertOption func(*converter)

type converter struct {
	svgOpts []SVGOption
	scale   float64
}

// WithSVGOptions passes options through to the underlying SVG renderer.
// Repeated calls accumulate.
func WithSVGOptions(opts ...SVGOption) ConvertOption {
	return func(c *converter) { c.svgOpts = append(c.svgOpts, opts...) }
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) ConvertOption {
	return func(c *converter) { c.scale = s }
}

func newConverter(opts []ConvertOption) converter {
	c := converter{scale: 2.0}
	for _, opt := range opts {
		opt(&c)
	}
	// Raster and print output cannot run scripts.
	c.svgOpts = append(slices.Clip(c.svgOpts), WithStatic())
	return c
}

// RenderPNG renders d as PNG via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, d sankey.Diagram, opts ...ConvertOption) ([]byte, error) {
	c := newConverter(opts)
	return render.ToPNG(ctx, RenderSVG(d, c.svgOpts...), c.scale)
}

// RenderPDF renders d as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, d sankey.Diagram, opts ...ConvertOption) ([]byte, error) {
	c := newConverter(opts)
	return render.ToPDF(ctx, RenderSVG(d, c.svgOpts...))
}
