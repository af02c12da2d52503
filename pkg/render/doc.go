// Package render converts rendered SVG into raster and print formats.
//
// [ToPDF] and [ToPNG] shell out to rsvg-convert (from librsvg). Both the
// Sankey renderer and the Graphviz node-link renderer produce SVG first and
// go through this package for everything else.
//
//	svg := sink.RenderSVG(d)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
package render
