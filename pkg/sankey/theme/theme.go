// Package theme derives node and link colors for a flow diagram from a
// two-tone palette.
//
// Source-column nodes take progressively lighter shades of Primary, target
// nodes shades of Secondary. Link colors blend their two endpoint colors in
// CIE-Lab space so the gradient stays perceptually even.
package theme

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

const (
	// shadeStep is how far each rank moves towards white.
	shadeStep = 0.08
	// maxShade caps the lightening so late ranks stay distinguishable from the background.
	maxShade = 0.5
	// accentDarken is applied to Primary when no accent is configured.
	accentDarken = 0.3
)

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{R: 0, G: 0, B: 0}
)

// Theme is a two-tone palette with an optional accent used for highlighted
// strokes. Colors are hex strings ("#1f77b4").
type Theme struct {
	Primary   string `json:"primary" toml:"primary" yaml:"primary" bson:"primary"`
	Secondary string `json:"secondary" toml:"secondary" yaml:"secondary" bson:"secondary"`
	Accent    string `json:"accent,omitempty" toml:"accent,omitempty" yaml:"accent,omitempty" bson:"accent,omitempty"`
}

// Default returns the built-in palette.
func Default() Theme {
	return Theme{Primary: "#3b82f6", Secondary: "#10b981"}
}

// WithDefaults fills empty colors from [Default].
func (t Theme) WithDefaults() Theme {
	d := Default()
	if t.Primary == "" {
		t.Primary = d.Primary
	}
	if t.Secondary == "" {
		t.Secondary = d.Secondary
	}
	return t
}

// Validate checks that every configured color parses as hex.
func (t Theme) Validate() error {
	for _, c := range []struct{ name, value string }{
		{"primary", t.Primary},
		{"secondary", t.Secondary},
		{"accent", t.Accent},
	} {
		if c.value == "" && c.name == "accent" {
			continue
		}
		if _, err := colorful.Hex(c.value); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidTheme, err, "%s color %q", c.name, c.value)
		}
	}
	return nil
}

// SourceColor returns the fill for the source-column node at rank (0 = largest).
func (t Theme) SourceColor(rank int) string {
	return shade(t.WithDefaults().Primary, rank)
}

// TargetColor returns the fill for the target-column node at rank.
func (t Theme) TargetColor(rank int) string {
	return shade(t.WithDefaults().Secondary, rank)
}

// AccentColor returns the highlight stroke color: the configured accent, or
// a darkened Primary.
func (t Theme) AccentColor() string {
	if t.Accent != "" {
		if c, err := colorful.Hex(t.Accent); err == nil {
			return c.Hex()
		}
	}
	return parse(t.WithDefaults().Primary).BlendLab(black, accentDarken).Clamped().Hex()
}

// LinkColor blends two node colors half way.
func LinkColor(from, to string) string {
	return parse(from).BlendLab(parse(to), 0.5).Clamped().Hex()
}

func shade(hex string, rank int) string {
	amount := math.Min(float64(max(rank, 0))*shadeStep, maxShade)
	if amount == 0 {
		return parse(hex).Hex()
	}
	return parse(hex).BlendLab(white, amount).Clamped().Hex()
}

// parse returns mid grey for unparseable input; callers validate up front.
func parse(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	return c
}
