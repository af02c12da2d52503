// Package sink renders a [sankey.Diagram] into output formats.
//
// # Formats
//
//   - [RenderSVG]: standalone SVG with an embedded hover script
//   - [RenderJSON]: the diagram's serialization format
//   - [ToDOT] / [RenderGraphviz]: a node-link view of the same flows, laid
//     out by Graphviz
//   - [RenderPNG] / [RenderPDF]: conversions of the SVG via rsvg-convert
//
// # Interaction
//
// The SVG carries its own hover state. Pointer events on a link or node set
// the state; leaving returns to nothing hovered. Elements that are not
// highlighted under the rules of package highlight get the class "dim".
// Every element exposes the data needed for those rules as data attributes:
// links carry data-index, data-source and data-target, nodes carry data-id.
//
// [sankey.Diagram]: https://pkg.go.dev/github.com/matzehuels/flowview/pkg/sankey#Diagram
package sink
