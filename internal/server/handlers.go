package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/flowview/pkg/buildinfo"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/sankey/highlight"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/theme"
)

// =============================================================================
// Requests
// =============================================================================

// diagramRequest is the JSON body of a diagram request.
type diagramRequest struct {
	Title string            `json:"title,omitempty"`
	Edges []flow.Edge       `json:"edges"`
	Names map[string]string `json:"names,omitempty"`

	Theme        *theme.Theme   `json:"theme,omitempty"`
	Canvas       *layout.Config `json:"canvas,omitempty"`
	MinLinkWidth float64        `json:"min_link_width,omitempty"`

	Values       bool    `json:"values,omitempty"`
	Static       bool    `json:"static,omitempty"`
	Detailed     bool    `json:"detailed,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
	SourceHeader string  `json:"source_header,omitempty"`
	TargetHeader string  `json:"target_header,omitempty"`
}

// highlightRequest is a diagram plus the hover state to resolve.
type highlightRequest struct {
	diagramRequest
	State highlight.State `json:"state"`
}

// highlightResponse lists what the state highlights.
type highlightResponse struct {
	State highlight.State `json:"state"`
	// Valid is false when the state names an element the diagram lacks.
	Valid bool     `json:"valid"`
	Links []int    `json:"links"`
	Nodes []string `json:"nodes"`
}

// apply overlays the request onto opts.
func (req diagramRequest) apply(opts *pipeline.Options) {
	opts.Document = &flow.Document{Title: req.Title, Edges: req.Edges, Names: req.Names}
	if req.Theme != nil {
		opts.Theme = *req.Theme
	}
	if req.Canvas != nil {
		opts.Canvas = *req.Canvas
	}
	if req.MinLinkWidth != 0 {
		opts.MinLinkWidth = req.MinLinkWidth
	}
	if req.Scale != 0 {
		opts.Scale = req.Scale
	}
	if req.SourceHeader != "" {
		opts.SourceHeader = req.SourceHeader
	}
	if req.TargetHeader != "" {
		opts.TargetHeader = req.TargetHeader
	}
	opts.Values = opts.Values || req.Values
	opts.Static = opts.Static || req.Static
	opts.Detailed = opts.Detailed || req.Detailed
}

// inputFormats maps raw body media types to document formats.
var inputFormats = map[string]string{
	"text/csv":           flow.FormatCSV,
	"application/yaml":   flow.FormatYAML,
	"application/x-yaml": flow.FormatYAML,
	"text/yaml":          flow.FormatYAML,
	"application/toml":   flow.FormatTOML,
}

// readOptions builds pipeline options from the request body and query.
func (s *Server) readOptions(r *http.Request, into any) (pipeline.Options, error) {
	opts := s.defaults
	opts.Logger = s.logger.With("request_id", RequestIDFrom(r.Context()))

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return opts, fverrors.Wrap(fverrors.ErrCodeInvalidFormat, err, "content type %q", ct)
		}
		mediaType = mt
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return opts, fverrors.New(fverrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return opts, fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "read body")
	}

	switch {
	case mediaType == "application/json":
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(into); err != nil {
			return opts, fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "decode request")
		}
	case inputFormats[mediaType] != "":
		if _, isHighlight := into.(*highlightRequest); isHighlight {
			return opts, fverrors.New(fverrors.ErrCodeInvalidFormat, "highlight requests must be JSON")
		}
		opts.Input = body
		opts.InputFormat = inputFormats[mediaType]
		return opts, s.readQuery(r, &opts)
	default:
		return opts, fverrors.New(fverrors.ErrCodeInvalidFormat,
			"unsupported content type %q (want application/json, text/csv, application/yaml or application/toml)", mediaType)
	}

	switch req := into.(type) {
	case *diagramRequest:
		req.apply(&opts)
	case *highlightRequest:
		req.diagramRequest.apply(&opts)
	}
	return opts, s.readQuery(r, &opts)
}

// readQuery applies ?format=, ?type=, ?values= and ?refresh=.
func (s *Server) readQuery(r *http.Request, opts *pipeline.Options) error {
	q := r.URL.Query()
	opts.Formats = []string{pipeline.FormatSVG}
	if f := q.Get("format"); f != "" {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
		opts.Formats = []string{f}
	}
	if t := q.Get("type"); t != "" {
		if err := pipeline.ValidateVizType(t); err != nil {
			return err
		}
		opts.VizType = t
	}
	for name, dst := range map[string]*bool{"values": &opts.Values, "static": &opts.Static, "refresh": &opts.Refresh} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "query parameter %s", name)
		}
		*dst = b
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	opts, err := s.readOptions(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	cacheStatus := "miss"
	if res.CacheInfo.RenderHit {
		cacheStatus = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", pipeline.ContentType(format))
	h.Set("X-Run-ID", res.RunID)
	h.Set("X-Cache", cacheStatus)
	h.Set("X-Diagram-Hash", res.DiagramHash)
	h.Set("X-Dropped-Edges", strconv.Itoa(res.Stats.DroppedEdges))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	opts, err := s.readOptions(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	doc, err := s.runner.Decode(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.runner.Build(r.Context(), doc, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	idx := highlight.NewIndex(d.Nodes, d.Links)
	resp := highlightResponse{
		State: idx.Resolve(req.State),
		Valid: idx.Valid(req.State),
		Links: idx.Links(req.State),
		Nodes: []string{},
	}
	if resp.Links == nil {
		resp.Links = []int{}
	}
	for _, n := range idx.Nodes(req.State) {
		resp.Nodes = append(resp.Nodes, n.Key())
	}
	writeJSON(w, http.StatusOK, resp)
}
