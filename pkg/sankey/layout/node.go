package layout

import (
	"fmt"
)

// Column identifies the side of the diagram a node is drawn on.
type Column int

const (
	// Source is the left column: entities flow originates from.
	Source Column = iota
	// Target is the right column: entities flow arrives at.
	Target
)

// String returns "source" or "target".
func (c Column) String() string {
	switch c {
	case Source:
		return "source"
	case Target:
		return "target"
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// MarshalText encodes the column by name.
func (c Column) MarshalText() ([]byte, error) {
	if c != Source && c != Target {
		return nil, fmt.Errorf("invalid column %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes "source" or "target".
func (c *Column) UnmarshalText(b []byte) error {
	switch string(b) {
	case "source":
		*c = Source
	case "target":
		*c = Target
	default:
		return fmt.Errorf("invalid column %q", string(b))
	}
	return nil
}

// Node is a positioned entity in one column.
type Node struct {
	ID          string  `json:"id" bson:"id"`
	DisplayName string  `json:"display_name" bson:"display_name"`
	Column      Column  `json:"column" bson:"column"`
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
	Width       float64 `json:"width" bson:"width"`
	Height      float64 `json:"height" bson:"height"`
	Color       string  `json:"color" bson:"color"`
	TotalValue  float64 `json:"total_value" bson:"total_value"`
	Rank        int     `json:"rank" bson:"rank"`
}

// Key returns a column-qualified identifier, unique within a diagram.
// It is meant for render-side lookups (DOM ids, map keys), never for
// deciding whether two nodes are the same entity; compare ID for that.
func (n Node) Key() string { return n.Column.String() + ":" + n.ID }

// Bottom returns the y coordinate of the node's lower edge.
func (n Node) Bottom() float64 { return n.Y + n.Height }

// CenterY returns the vertical center of the node.
func (n Node) CenterY() float64 { return n.Y + n.Height/2 }

// Right returns the x coordinate of the node's right edge.
func (n Node) Right() float64 { return n.X + n.Width }
