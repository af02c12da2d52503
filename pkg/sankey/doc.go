// Package sankey assembles two-column flow diagrams.
//
// A diagram is computed in three pure stages, each in its own subpackage:
//
//	[]flow.Edge
//	     ↓
//	flow.Aggregate   (drop self loops and non-positive rows, sum per column)
//	     ↓
//	layout.Build     (node order, heights, positions, colors)
//	     ↓
//	route.Route      (stacked link bands as cubic Bezier curves)
//
// [Build] runs all three and returns a [Diagram], the serialization format
// shared by the renderers in [sink], the pipeline cache and the HTTP API.
// Hover emphasis is decided separately by package highlight.
//
// [sink]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey/sink
package sankey
