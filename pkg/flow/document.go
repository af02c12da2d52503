package flow

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

// Input document formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatCSV  = "csv"
)

// Document is an edge list plus optional presentation data.
type Document struct {
	Title string            `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Edges []Edge            `json:"edges" yaml:"edges" toml:"edges"`
	Names map[string]string `json:"names,omitempty" yaml:"names,omitempty" toml:"names,omitempty"`
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fverrors.New(fverrors.ErrCodeInvalidFormat,
		"cannot infer format of %s (want .json, .yaml, .toml or .csv)", filepath.Base(path))
}

// ReadFile reads an edge document, inferring its format from the extension.
func ReadFile(path string) (Document, error) {
	if err := fverrors.ValidatePath(path); err != nil {
		return Document{}, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, fverrors.Wrap(fverrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return Document{}, fverrors.Wrap(fverrors.GetCodeOr(err, fverrors.ErrCodeInvalidInput), err, "read %s", path)
	}
	return doc, nil
}

// Decode reads a document in the given format from r.
// Row-level anomalies (self loops, non-positive quantities) are kept; they
// are dropped later by [Aggregate]. Structural problems such as unparseable
// input or empty entity ids are reported as INVALID_INPUT errors.
func Decode(r io.Reader, format string) (Document, error) {
	var (
		doc Document
		err error
	)
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&doc)
	case FormatCSV:
		doc.Edges, err = decodeCSV(r)
	default:
		return Document{}, fverrors.New(fverrors.ErrCodeInvalidFormat,
			"unsupported input format: %q (must be one of: json, yaml, toml, csv)", format)
	}
	if err != nil {
		return Document{}, fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "decode %s", format)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks that every edge names two usable entity ids.
func (d Document) Validate() error {
	for i, e := range d.Edges {
		if err := fverrors.ValidateNodeID(e.Source); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "edge %d source", i)
		}
		if err := fverrors.ValidateNodeID(e.Dest); err != nil {
			return fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "edge %d dest", i)
		}
	}
	return nil
}

// decodeCSV reads "source,dest,qty" rows. A first row whose quantity column
// is not numeric is treated as a header.
func decodeCSV(r io.Reader) ([]Edge, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var edges []Edge
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return edges, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			return nil, fverrors.New(fverrors.ErrCodeInvalidInput, "line %d: want 3 columns, got %d", line, len(rec))
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "line %d: quantity", line)
		}
		edges = append(edges, Edge{
			Source: strings.TrimSpace(rec[0]),
			Dest:   strings.TrimSpace(rec[1]),
			Qty:    qty,
		})
	}
}
