package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

var wantScenarioA = []Edge{
	{Source: "A", Dest: "X", Qty: 10},
	{Source: "A", Dest: "Y", Qty: 30},
	{Source: "B", Dest: "X", Qty: 20},
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
	}{
		{
			name:   "json",
			format: FormatJSON,
			input: `{"title":"Transfers","names":{"A":"Alpha"},"edges":[
				{"source":"A","dest":"X","qty":10},
				{"source":"A","dest":"Y","qty":30},
				{"source":"B","dest":"X","qty":20}]}`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			input: `title: Transfers
names:
  A: Alpha
edges:
  - {source: A, dest: X, qty: 10}
  - {source: A, dest: Y, qty: 30}
  - {source: B, dest: X, qty: 20}
`,
		},
		{
			name:   "toml",
			format: FormatTOML,
			input: `title = "Transfers"

[names]
A = "Alpha"

[[edges]]
source = "A"
dest = "X"
qty = 10.0

[[edges]]
source = "A"
dest = "Y"
qty = 30.0

[[edges]]
source = "B"
dest = "X"
qty = 20.0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if doc.Title != "Transfers" {
				t.Errorf("Title = %q, want Transfers", doc.Title)
			}
			if doc.Names["A"] != "Alpha" {
				t.Errorf("Names[A] = %q, want Alpha", doc.Names["A"])
			}
			assertEdges(t, doc.Edges, wantScenarioA)
		})
	}
}

func TestDecodeCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"with header", "source,dest,qty\nA,X,10\nA,Y,30\nB,X,20\n"},
		{"without header", "A,X,10\nA,Y,30\nB,X,20\n"},
		{"spaces", "A, X, 10\nA, Y, 30\nB, X, 20\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input), FormatCSV)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			assertEdges(t, doc.Edges, wantScenarioA)
		})
	}
}

func TestDecodeKeepsAnomalousRows(t *testing.T) {
	doc, err := Decode(strings.NewReader("A,A,5\nA,B,-1\nA,B,0\n"), FormatCSV)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(doc.Edges) != 3 {
		t.Errorf("len(Edges) = %d, want 3 (filtering happens in Aggregate)", len(doc.Edges))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		code   fverrors.Code
	}{
		{"bad json", FormatJSON, `{"edges": [`, fverrors.ErrCodeInvalidInput},
		{"empty source", FormatJSON, `{"edges":[{"source":"","dest":"X","qty":1}]}`, fverrors.ErrCodeInvalidInput},
		{"short csv row", FormatCSV, "A,B\n", fverrors.ErrCodeInvalidInput},
		{"bad csv qty", FormatCSV, "A,B,1\nA,C,lots\n", fverrors.ErrCodeInvalidInput},
		{"unknown format", "xml", `<edges/>`, fverrors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !fverrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", fverrors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestDecodeEmptyDocument(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatYAML, FormatTOML, FormatCSV} {
		doc, err := Decode(strings.NewReader(""), format)
		if err != nil {
			t.Errorf("%s: Decode(empty) error = %v", format, err)
		}
		if len(doc.Edges) != 0 {
			t.Errorf("%s: len(Edges) = %d, want 0", format, len(doc.Edges))
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"flows.json", FormatJSON, false},
		{"flows.YAML", FormatYAML, false},
		{"flows.yml", FormatYAML, false},
		{"dir/flows.toml", FormatTOML, false},
		{"flows.csv", FormatCSV, false},
		{"flows.txt", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flows.csv")
	if err := os.WriteFile(path, []byte("A,X,10\nA,Y,30\nB,X,20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	assertEdges(t, doc.Edges, wantScenarioA)

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	if !fverrors.Is(err, fverrors.ErrCodeFileNotFound) {
		t.Errorf("missing file code = %v, want %v", fverrors.GetCode(err), fverrors.ErrCodeFileNotFound)
	}
}

func assertEdges(t *testing.T, got, want []Edge) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len(edges) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
