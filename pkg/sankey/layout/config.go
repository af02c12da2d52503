package layout

import (
	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

// Default geometry, in user units (pixels in SVG output).
const (
	DefaultWidth         = 960.0
	DefaultNodeWidth     = 20.0
	DefaultMinNodeHeight = 32.0
	DefaultNodeGap       = 16.0
	DefaultFlexSpace     = 120.0
	DefaultMinHeight     = 160.0
	DefaultPadding       = 24.0
	DefaultTopMargin     = 32.0
	DefaultSlack         = 0.8
)

// Config holds the geometry constants of a layout.
type Config struct {
	// Width is the canvas width.
	Width float64 `json:"width" toml:"width"`
	// NodeWidth is the horizontal thickness of every node.
	NodeWidth float64 `json:"node_width" toml:"node_width"`
	// MinNodeHeight is the floor applied to every node's height.
	MinNodeHeight float64 `json:"min_node_height" toml:"min_node_height"`
	// NodeGap separates vertically adjacent nodes.
	NodeGap float64 `json:"node_gap" toml:"node_gap"`
	// FlexSpace is added to each column's requirement as room for
	// proportional growth beyond the floor.
	FlexSpace float64 `json:"flex_space" toml:"flex_space"`
	// MinHeight is the global minimum internal height, and the canvas
	// height of an empty diagram.
	MinHeight float64 `json:"min_height" toml:"min_height"`
	// Padding surrounds the drawing area on every side.
	Padding float64 `json:"padding" toml:"padding"`
	// TopMargin is reserved above the columns for headers.
	TopMargin float64 `json:"top_margin" toml:"top_margin"`
	// Slack is the fraction of the usable height handed out proportionally.
	Slack float64 `json:"slack" toml:"slack"`
}

// DefaultConfig returns the default geometry.
func DefaultConfig() Config {
	return Config{
		Width:         DefaultWidth,
		NodeWidth:     DefaultNodeWidth,
		MinNodeHeight: DefaultMinNodeHeight,
		NodeGap:       DefaultNodeGap,
		FlexSpace:     DefaultFlexSpace,
		MinHeight:     DefaultMinHeight,
		Padding:       DefaultPadding,
		TopMargin:     DefaultTopMargin,
		Slack:         DefaultSlack,
	}
}

// WithDefaults replaces zero fields with their defaults.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.NodeWidth == 0 {
		c.NodeWidth = d.NodeWidth
	}
	if c.MinNodeHeight == 0 {
		c.MinNodeHeight = d.MinNodeHeight
	}
	if c.NodeGap == 0 {
		c.NodeGap = d.NodeGap
	}
	if c.FlexSpace == 0 {
		c.FlexSpace = d.FlexSpace
	}
	if c.MinHeight == 0 {
		c.MinHeight = d.MinHeight
	}
	if c.Padding == 0 {
		c.Padding = d.Padding
	}
	if c.TopMargin == 0 {
		c.TopMargin = d.TopMargin
	}
	if c.Slack == 0 {
		c.Slack = d.Slack
	}
	return c
}

// Validate rejects geometry that cannot produce a drawable diagram.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0, c.NodeWidth <= 0, c.MinNodeHeight <= 0, c.MinHeight <= 0:
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "width, node_width, min_node_height and min_height must be positive")
	case c.NodeGap < 0, c.FlexSpace < 0, c.Padding < 0, c.TopMargin < 0:
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "node_gap, flex_space, padding and top_margin must not be negative")
	case c.Slack <= 0 || c.Slack > 1:
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "slack must be in (0, 1], got %v", c.Slack)
	case c.Width < 2*c.Padding+2*c.NodeWidth:
		return fverrors.New(fverrors.ErrCodeInvalidConfig, "width %v too small for two columns", c.Width)
	}
	return nil
}

// requirement is the minimum internal height for a column of n nodes.
func (c Config) requirement(n int) float64 {
	return float64(n)*(c.MinNodeHeight+c.NodeGap) + c.FlexSpace
}

// CanvasHeight converts an internal height into the full canvas height.
func (c Config) CanvasHeight(internal float64) float64 {
	return internal + 2*c.Padding + c.TopMargin
}

// ColumnX returns the left edge of nodes in col.
func (c Config) ColumnX(col Column) float64 {
	if col == Target {
		return c.Width - c.Padding - c.NodeWidth
	}
	return c.Padding
}

// Top returns the y coordinate of the first node in each column.
func (c Config) Top() float64 { return c.Padding + c.TopMargin }
