// Package pkg provides the libraries behind flowview, a two-column flow
// diagram engine.
//
// # Overview
//
// flowview turns a list of weighted source → destination edges into a
// diagram: every entity that sends flow gets a rectangle in the left column,
// every entity that receives flow gets one in the right column, and each
// aggregated edge becomes a curved band whose thickness is proportional to
// its quantity. The same entity may appear in both columns.
//
// # Architecture
//
//	edge document (JSON, YAML, TOML, CSV)
//	         ↓
//	    [flow] package (decode + aggregate)
//	         ↓
//	    [sankey/layout] package (node rectangles, canvas height)
//	         ↓
//	    [sankey/route] package (link bands)
//	         ↓
//	    [sankey/sink] package (SVG, JSON, DOT, PNG, PDF)
//
// [sankey/highlight] answers hover queries against a built diagram and is
// shared by the interactive SVG, the terminal explorer and the HTTP API.
//
// # Quick Start
//
//	doc, _ := flow.ReadFile("budget.json")
//	d := sankey.FromDocument(doc, nil)
//	svg := sink.RenderSVG(d, sink.WithValues())
//
// # Main Packages
//
// [flow] - Edge documents and the aggregator. Self-loops, non-positive and
// non-finite quantities are dropped; parallel edges are summed.
//
// [sankey] - The [sankey.Diagram] type that ties layout, routing and theme
// together, plus its JSON file format.
//
// [names] - Resolvers from entity IDs to display names.
//
// [pipeline] - Decode → build → render orchestration with caching, used by
// the CLI and the HTTP service alike.
//
// [cache] - Cache backends (file, memory, Redis, MongoDB) and key derivation.
//
// [config] - TOML configuration with environment overrides.
//
// [observability] - Hook registry and Prometheus metrics.
//
// [render] - SVG to PNG/PDF conversion.
//
// [errors] - Coded errors shared by every entry point.
//
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/flow
// [sankey]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey
// [sankey/layout]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey/layout
// [sankey/route]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey/route
// [sankey/sink]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey/sink
// [sankey/highlight]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey/highlight
// [names]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/names
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/errors
package pkg
