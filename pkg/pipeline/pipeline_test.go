package pipeline

import (
	"maps"
	"math"
	"testing"

	"github.com/matzehuels/flowview/pkg/cache"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

func sampleDoc() *flow.Document {
	return &flow.Document{
		Title: "Budget",
		Edges: []flow.Edge{
			{Source: "A", Dest: "X", Qty: 10},
			{Source: "A", Dest: "Y", Qty: 5},
			{Source: "B", Dest: "X", Qty: 3},
		},
		Names: map[string]string{"A": "Alpha"},
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"dot", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !fverrors.Is(err, fverrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want %s", tt.format, fverrors.GetCode(err), fverrors.ErrCodeInvalidFormat)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateVizType(t *testing.T) {
	tests := []struct {
		vizType string
		wantErr bool
	}{
		{"sankey", false},
		{"nodelink", false},
		{"pie", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateVizType(tt.vizType)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateVizType(%q) error = %v, wantErr %v", tt.vizType, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateForDecode(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code fverrors.Code
	}{
		{"no input", Options{}, fverrors.ErrCodeInvalidInput},
		{"two inputs", Options{Document: sampleDoc(), Path: "x.csv"}, fverrors.ErrCodeInvalidInput},
		{"raw without format", Options{Input: []byte("a,b,1")}, fverrors.ErrCodeInvalidFormat},
		{"bad path", Options{Path: "bad\x00path.csv"}, fverrors.ErrCodeInvalidInput},
		{"document", Options{Document: sampleDoc()}, ""},
		{"raw", Options{Input: []byte("a,b,1"), InputFormat: "csv"}, ""},
		{"path", Options{Path: "flows.yaml"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForDecode()
			if got := fverrors.GetCode(err); got != tt.code {
				t.Errorf("ValidateForDecode() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code fverrors.Code
	}{
		{"defaults", Options{}, ""},
		{"bad viz", Options{VizType: "pie"}, fverrors.ErrCodeInvalidVizType},
		{"bad format", Options{Formats: []string{"gif"}}, fverrors.ErrCodeInvalidFormat},
		{"bad scale", Options{Scale: 20}, fverrors.ErrCodeInvalidInput},
		{"bad input format", Options{InputFormat: "xml"}, fverrors.ErrCodeInvalidInput},
		{"bad theme", Options{Theme: theme.Theme{Primary: "nope"}}, fverrors.ErrCodeInvalidTheme},
		{"bad slack", Options{Canvas: layout.Config{Slack: 3}}, fverrors.ErrCodeInvalidConfig},
		{"negative link width", Options{MinLinkWidth: -1}, fverrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForRender()
			if got := fverrors.GetCode(err); got != tt.code {
				t.Errorf("ValidateForRender() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Document: sampleDoc()}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	originalVizType := opts.VizType
	originalFormats := append([]string(nil), opts.Formats...)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.VizType != originalVizType {
		t.Error("VizType changed on second call")
	}
	if len(opts.Formats) != len(originalFormats) {
		t.Error("Formats changed on second call")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.VizType != DefaultVizType {
		t.Errorf("VizType should be %s, got %s", DefaultVizType, opts.VizType)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %v, got %v", DefaultScale, opts.Scale)
	}
	if opts.Canvas != layout.DefaultConfig() {
		t.Errorf("Canvas should be defaulted, got %+v", opts.Canvas)
	}
	if opts.Logger == nil {
		t.Error("Logger should be defaulted")
	}
}

func TestOptionsIsNodelink(t *testing.T) {
	opts := Options{}
	if opts.IsNodelink() {
		t.Error("Empty VizType should not be nodelink")
	}

	opts.VizType = "nodelink"
	if !opts.IsNodelink() {
		t.Error("nodelink VizType should be nodelink")
	}
}

func keyOpts(t *testing.T, o Options, doc flow.Document) cache.DiagramKeyOpts {
	t.Helper()
	k, err := o.DiagramKeyOpts(doc)
	if err != nil {
		t.Fatalf("DiagramKeyOpts() error: %v", err)
	}
	return k
}

func TestDiagramKeyOpts(t *testing.T) {
	doc := *sampleDoc()

	base := Options{}
	base.SetBuildDefaults()
	k1 := keyOpts(t, base, doc)
	if k1.Title != "Budget" {
		t.Errorf("Title = %q, want document title", k1.Title)
	}

	titled := base
	titled.Title = "Override"
	titled.Names = map[string]string{"B": "Beta"}
	k2 := keyOpts(t, titled, doc)
	if k2.Title != "Override" {
		t.Errorf("Title = %q, want option title", k2.Title)
	}
	if k2.Names["A"] != "Alpha" || k2.Names["B"] != "Beta" {
		t.Errorf("Names = %v, want merged names", k2.Names)
	}

	themed := base
	themed.Theme.Primary = "#000000"
	if keyOpts(t, themed, doc).Theme == k1.Theme {
		t.Error("theme change should change the key")
	}

	wide := base
	wide.Canvas.Width = 2000
	if keyOpts(t, wide, doc).Layout == k1.Layout {
		t.Error("canvas change should change the key")
	}

	resolved := base
	resolved.Resolver = names.Map{"A": "ignored", "X": "Ex"}
	k3 := keyOpts(t, resolved, doc)
	want := map[string]string{"A": "Alpha", "X": "Ex"}
	if !maps.Equal(k3.Names, want) {
		t.Errorf("Names = %v, want %v", k3.Names, want)
	}
}

func TestDiagramKeyOptsUnhashableCanvas(t *testing.T) {
	opts := Options{}
	opts.SetBuildDefaults()
	opts.Canvas.Width = math.NaN()
	if _, err := opts.DiagramKeyOpts(*sampleDoc()); err == nil {
		t.Error("DiagramKeyOpts() should fail when the canvas cannot be hashed")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if k := opts.ArtifactKeyOpts(FormatPNG); !k.Static || k.Scale != DefaultScale {
		t.Errorf("png key = %+v, want static with scale", k)
	}
	if k := opts.ArtifactKeyOpts(FormatSVG); k.Static || k.Scale != 0 {
		t.Errorf("svg key = %+v, want interactive without scale", k)
	}
	if a, b := opts.ArtifactKeyOpts(FormatJSON), opts.ArtifactKeyOpts(FormatSVG); a == b {
		t.Error("json and svg keys should differ")
	}

	nodelink := opts
	nodelink.VizType = VizTypeNodelink
	if opts.ArtifactKeyOpts(FormatDOT) != nodelink.ArtifactKeyOpts(FormatDOT) {
		t.Error("dot output does not depend on viz type")
	}
	if opts.ArtifactKeyOpts(FormatSVG) == nodelink.ArtifactKeyOpts(FormatSVG) {
		t.Error("svg output depends on viz type")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		FormatSVG:  "image/svg+xml",
		FormatJSON: "application/json",
		FormatDOT:  "text/vnd.graphviz",
		FormatPNG:  "image/png",
		FormatPDF:  "application/pdf",
		"other":    "application/octet-stream",
	}
	for format, want := range tests {
		if got := ContentType(format); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", format, got, want)
		}
	}
}
