package sink

import (
	"github.com/matzehuels/flowview/pkg/sankey"
)

// RenderJSON renders d as pretty-printed JSON.
func RenderJSON(d sankey.Diagram) ([]byte, error) {
	return sankey.MarshalDiagram(d)
}
