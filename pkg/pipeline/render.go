package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/flowview/pkg/observability"
	"github.com/matzehuels/flowview/pkg/render"
	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	var (
		artifacts map[string][]byte
		err       error
	)
	if opts.IsNodelink() {
		artifacts, err = renderNodelink(ctx, d, opts)
	} else {
		artifacts, err = renderSankey(ctx, d, opts)
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

// renderSankey generates two-column flow diagram outputs.
func renderSankey(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data = sink.RenderSVG(d, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(d)
		case FormatDOT:
			data = []byte(sink.ToDOT(d, sink.DOTOptions{Detailed: opts.Detailed}))
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, d, sink.WithSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, d, sink.WithSVGOptions(svgOpts...))
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderNodelink generates Graphviz node-link outputs. The DOT source is
// laid out once and shared by the SVG, PNG and PDF outputs.
func renderNodelink(ctx context.Context, d sankey.Diagram, opts Options) (map[string][]byte, error) {
	dot := sink.ToDOT(d, sink.DOTOptions{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svg []byte
	graphviz := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		var err error
		svg, err = sink.RenderGraphviz(ctx, dot)
		return svg, err
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatSVG:
			data, err = graphviz()
		case FormatJSON:
			data, err = sink.RenderJSON(d)
		case FormatDOT:
			data = []byte(dot)
		case FormatPNG:
			if data, err = graphviz(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = graphviz(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{sink.WithHeaders(opts.SourceHeader, opts.TargetHeader)}
	if opts.Static {
		svgOpts = append(svgOpts, sink.WithStatic())
	}
	if opts.Values {
		svgOpts = append(svgOpts, sink.WithValues())
	}
	return svgOpts
}
