// Package pipeline provides the decode → build → render pipeline for flowview.
//
// The CLI and the HTTP service both run diagrams through a [Runner], so
// defaults, validation and caching behave the same at every entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Read an edge document (JSON, YAML, TOML or CSV), or take one
//     that was decoded already
//  2. Build: Aggregate the edges, lay out both columns and route the links
//  3. Render: Generate output in various formats (SVG, JSON, DOT, PNG, PDF)
//
// Build and render results are cached. The diagram is keyed by a hash of the
// edges and everything else that changes geometry; each artifact is keyed by
// a hash of the diagram and its format options.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "flows.csv",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	doc, err := runner.Decode(ctx, opts)
//	d, err := runner.Build(ctx, doc, opts)
//	artifacts, err := runner.Render(ctx, d, opts)
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/flowview/pkg/cache"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultSourceHeader and DefaultTargetHeader label the two columns.
	DefaultSourceHeader = "Source"
	DefaultTargetHeader = "Target"
)

// Visualization types.
const (
	VizTypeSankey   = "sankey"
	VizTypeNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeSankey

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeSankey:   true,
	VizTypeNodelink: true,
}

// ContentType returns the MIME type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input: exactly one of Document, Input or Path.
	Document    *flow.Document `json:"document,omitempty" validate:"-"`
	Input       []byte         `json:"-"`
	InputFormat string         `json:"input_format,omitempty" validate:"omitempty,oneof=json yaml toml csv"`
	Path        string         `json:"-"`

	// Build options
	Title        string            `json:"title,omitempty" validate:"max=200"`
	Names        map[string]string `json:"names,omitempty"`
	Canvas       layout.Config     `json:"canvas,omitempty"`
	Theme        theme.Theme       `json:"theme,omitempty"`
	MinLinkWidth float64           `json:"min_link_width,omitempty" validate:"gte=0"`

	// Render options
	VizType      string   `json:"viz_type,omitempty" validate:"oneof=sankey nodelink"`
	Formats      []string `json:"formats,omitempty" validate:"min=1,dive,oneof=svg json dot png pdf"`
	Static       bool     `json:"static,omitempty"`
	Values       bool     `json:"values,omitempty"`
	Detailed     bool     `json:"detailed,omitempty"`
	Scale        float64  `json:"scale,omitempty" validate:"gt=0,lte=8"`
	SourceHeader string   `json:"source_header,omitempty"`
	TargetHeader string   `json:"target_header,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" validate:"-"`
	// Resolver names entities that neither the document nor Names label.
	Resolver names.Resolver `json:"-" validate:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string

	// Diagram is the positioned diagram.
	Diagram sankey.Diagram

	// DiagramHash is the content hash of the serialized diagram.
	DiagramHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EdgeCount    int
	DroppedEdges int
	NodeCount    int
	LinkCount    int
	DecodeTime   time.Duration
	BuildTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DiagramHit bool // Whether the diagram came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation
// =============================================================================

var validate = validator.New()

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fverrors.New(fverrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, json, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return fverrors.New(fverrors.ErrCodeInvalidVizType,
			"invalid viz_type: %q (must be one of: sankey, nodelink)", vizType)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and checks every option.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForDecode(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForDecode checks that exactly one input is set.
func (o *Options) ValidateForDecode() error {
	n := 0
	for _, set := range []bool{o.Document != nil, len(o.Input) > 0, o.Path != ""} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return fverrors.New(fverrors.ErrCodeInvalidInput, "document, input or path is required")
	case n > 1:
		return fverrors.New(fverrors.ErrCodeInvalidInput, "only one of document, input or path may be set")
	case len(o.Input) > 0 && o.InputFormat == "":
		return fverrors.New(fverrors.ErrCodeInvalidFormat, "input_format is required with raw input")
	}
	if o.Path != "" {
		if err := fverrors.ValidatePath(o.Path); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetBuildDefaults sets default values for diagram construction.
func (o *Options) SetBuildDefaults() {
	o.Canvas = o.Canvas.WithDefaults()
	o.Theme = o.Theme.WithDefaults()
	o.setLogger()
}

// ValidateForBuild validates and sets defaults for diagram construction.
func (o *Options) ValidateForBuild() error {
	o.SetBuildDefaults()
	if err := o.Canvas.Validate(); err != nil {
		return err
	}
	if err := o.Theme.Validate(); err != nil {
		return err
	}
	if o.MinLinkWidth < 0 {
		return fverrors.New(fverrors.ErrCodeInvalidInput, "min_link_width must not be negative")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	o.SetBuildDefaults()
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.SourceHeader == "" {
		o.SourceHeader = DefaultSourceHeader
	}
	if o.TargetHeader == "" {
		o.TargetHeader = DefaultTargetHeader
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := validate.Struct(o); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "invalid options")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fverrors.New(fverrors.ErrCodeInvalidInput, "invalid options: %s", strings.Join(msgs, "; "))
}

// IsNodelink returns true if this is a Graphviz node-link visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

// DiagramKeyOpts returns cache key options for diagram construction.
func (o *Options) DiagramKeyOpts(doc flow.Document) (cache.DiagramKeyOpts, error) {
	themeHash, err := cache.HashJSON(o.Theme)
	if err != nil {
		return cache.DiagramKeyOpts{}, fmt.Errorf("hash theme: %w", err)
	}
	layoutHash, err := cache.HashJSON(o.Canvas)
	if err != nil {
		return cache.DiagramKeyOpts{}, fmt.Errorf("hash canvas: %w", err)
	}
	return cache.DiagramKeyOpts{
		Title:    o.title(doc),
		Names:    o.names(doc),
		Theme:    themeHash,
		Layout:   layoutHash,
		MinWidth: o.MinLinkWidth,
	}, nil
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, VizType: o.VizType}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		k.Static = o.Static || format != FormatSVG
		k.Values = o.Values
		k.Headers = [2]string{o.SourceHeader, o.TargetHeader}
		if format == FormatPNG {
			k.Scale = o.Scale
		}
	case FormatDOT:
		k.VizType = ""
	case FormatJSON:
		k.VizType = ""
	}
	if format == FormatDOT || o.IsNodelink() {
		k.Detailed = o.Detailed
	}
	return k
}

// title prefers the explicit option over the document's title.
func (o *Options) title(doc flow.Document) string {
	if o.Title != "" {
		return o.Title
	}
	return doc.Title
}

// names merges document names with option names; options win. Ids left
// unnamed are looked up through the Resolver, so the result fully
// determines the labels and can key the diagram cache.
func (o *Options) names(doc flow.Document) map[string]string {
	if len(o.Names) == 0 && o.Resolver == nil {
		return doc.Names
	}
	merged := make(map[string]string, len(doc.Names)+len(o.Names))
	for k, v := range doc.Names {
		merged[k] = v
	}
	for k, v := range o.Names {
		merged[k] = v
	}
	if o.Resolver == nil {
		return merged
	}
	for _, e := range doc.Edges {
		for _, id := range [2]string{e.Source, e.Dest} {
			if _, ok := merged[id]; ok {
				continue
			}
			if name, ok := o.Resolver.Resolve(id); ok {
				merged[id] = name
			}
		}
	}
	return merged
}
