package sankey

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/route"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

// =============================================================================
// Diagram
// =============================================================================

// Diagram is a fully positioned flow diagram.
type Diagram struct {
	Title string `json:"title,omitempty" bson:"title,omitempty"`

	Width          float64 `json:"width" bson:"width"`
	Height         float64 `json:"height" bson:"height"`
	InternalHeight float64 `json:"internal_height" bson:"internal_height"`

	// TotalFlow is the displayed total: exactly 0 for an empty diagram.
	TotalFlow float64 `json:"total_flow" bson:"total_flow"`
	// Dropped counts input edges that did not survive aggregation.
	Dropped int `json:"dropped,omitempty" bson:"dropped,omitempty"`

	Nodes []layout.Node `json:"nodes" bson:"nodes"`
	Links []route.Link  `json:"links" bson:"links"`

	Theme theme.Theme `json:"theme" bson:"theme"`
}

// Empty reports whether the diagram has nothing to draw.
func (d Diagram) Empty() bool { return len(d.Nodes) == 0 }

// Column returns the nodes of col in stacking order.
func (d Diagram) Column(col layout.Column) []layout.Node {
	return layout.Result{Nodes: d.Nodes}.Column(col)
}

// Node returns the node for entity id in col.
func (d Diagram) Node(id string, col layout.Column) (layout.Node, bool) {
	return layout.Result{Nodes: d.Nodes}.Find(id, col)
}

// =============================================================================
// Build
// =============================================================================

// Option configures [Build].
type Option func(*settings)

type settings struct {
	title     string
	theme     theme.Theme
	layoutOps []layout.Option
	routeOps  []route.Option
}

// WithTitle sets the diagram title.
func WithTitle(title string) Option { return func(s *settings) { s.title = title } }

// WithTheme sets the palette for nodes and links.
func WithTheme(t theme.Theme) Option {
	return func(s *settings) {
		s.theme = t.WithDefaults()
		s.layoutOps = append(s.layoutOps, layout.WithTheme(s.theme))
	}
}

// WithResolver sets the display-name resolver.
func WithResolver(r names.Resolver) Option {
	return func(s *settings) { s.layoutOps = append(s.layoutOps, layout.WithResolver(r)) }
}

// WithConfig sets the layout geometry.
func WithConfig(c layout.Config) Option {
	return func(s *settings) { s.layoutOps = append(s.layoutOps, layout.WithConfig(c)) }
}

// WithLayoutOptions passes options through to layout.Build.
func WithLayoutOptions(opts ...layout.Option) Option {
	return func(s *settings) { s.layoutOps = append(s.layoutOps, opts...) }
}

// WithRouteOptions passes options through to route.Route.
func WithRouteOptions(opts ...route.Option) Option {
	return func(s *settings) { s.routeOps = append(s.routeOps, opts...) }
}

// Build computes the diagram for edges. It never fails: anomalous edges are
// dropped and counted in Diagram.Dropped.
func Build(edges []flow.Edge, opts ...Option) Diagram {
	s := settings{theme: theme.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	agg := flow.Aggregate(edges)
	l := layout.Build(agg, s.layoutOps...)
	links := route.Route(agg, l.Nodes, s.routeOps...)

	return Diagram{
		Title:          s.title,
		Width:          l.CanvasWidth,
		Height:         l.CanvasHeight,
		InternalHeight: l.InternalHeight,
		TotalFlow:      agg.TotalFlow,
		Dropped:        agg.Dropped,
		Nodes:          l.Nodes,
		Links:          links,
		Theme:          s.theme,
	}
}

// FromDocument builds the diagram described by an edge document. The
// document's names take precedence over r; r may be nil.
func FromDocument(doc flow.Document, r names.Resolver, opts ...Option) Diagram {
	var resolver names.Resolver = names.Map(doc.Names)
	if r != nil {
		resolver = names.Chain{resolver, r}
	}
	base := []Option{WithTitle(doc.Title), WithResolver(resolver)}
	return Build(doc.Edges, append(base, opts...)...)
}

// =============================================================================
// Serialization
// =============================================================================

// MarshalDiagram serializes a Diagram to pretty-printed JSON bytes.
func MarshalDiagram(d Diagram) ([]byte, error) {
	if d.Nodes == nil {
		d.Nodes = []layout.Node{}
	}
	if d.Links == nil {
		d.Links = []route.Link{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDiagram deserializes JSON bytes into a Diagram.
func UnmarshalDiagram(data []byte) (Diagram, error) {
	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return Diagram{}, fmt.Errorf("unmarshal diagram: %w", err)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return Diagram{}, fmt.Errorf("diagram must have positive dimensions")
	}
	return d, nil
}

// WriteDiagramFile writes a Diagram to a JSON file.
func WriteDiagramFile(d Diagram, path string) error {
	data, err := MarshalDiagram(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadDiagramFile reads a Diagram from a JSON file.
func ReadDiagramFile(path string) (Diagram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalDiagram(data)
}
