package pipeline

import (
	"bytes"
	"context"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowview/pkg/cache"
	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
)

func newTestRunner() (*Runner, *cache.MemoryCache) {
	c := cache.NewMemoryCache(64)
	return NewRunner(c, nil, nil), c
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatalf("NewRunner(nil, nil, nil) = %+v, want defaults", r)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestExecuteDocument(t *testing.T) {
	r, _ := newTestRunner()
	res, err := r.Execute(context.Background(), Options{
		Document: sampleDoc(),
		Formats:  []string{FormatSVG, FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.Stats.EdgeCount != 3 || res.Stats.NodeCount != 4 || res.Stats.LinkCount != 3 {
		t.Errorf("Stats = %+v, want 3 edges, 4 nodes, 3 links", res.Stats)
	}
	if res.Diagram.Title != "Budget" {
		t.Errorf("Title = %q, want Budget", res.Diagram.Title)
	}
	if n, ok := res.Diagram.Node("A", layout.Source); !ok || n.DisplayName != "Alpha" {
		t.Errorf("Node(A) = %+v, %v, want display name Alpha", n, ok)
	}

	svg := string(res.Artifacts[FormatSVG])
	if got := strings.Count(svg, `<path class="link"`); got != 3 {
		t.Errorf("svg has %d link paths, want 3", got)
	}
	if _, err := sankey.UnmarshalDiagram(res.Artifacts[FormatJSON]); err != nil {
		t.Errorf("json artifact does not decode: %v", err)
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph") {
		t.Errorf("dot artifact = %q", res.Artifacts[FormatDOT])
	}
	if res.DiagramHash == "" {
		t.Error("DiagramHash should be set")
	}
}

func TestExecuteSecondRunHitsCache(t *testing.T) {
	r, c := newTestRunner()
	ctx := context.Background()
	opts := Options{Document: sampleDoc(), Formats: []string{FormatSVG, FormatJSON}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.DiagramHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}
	if c.Len() != 3 {
		t.Errorf("cache holds %d entries, want 3 (diagram + 2 artifacts)", c.Len())
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.DiagramHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}
	if first.DiagramHash != second.DiagramHash {
		t.Error("cached diagram hashes differently")
	}
	if first.RunID == second.RunID {
		t.Error("runs should get distinct ids")
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()
	opts := Options{Document: sampleDoc()}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.DiagramHit || res.CacheInfo.RenderHit {
		t.Errorf("CacheInfo = %+v, want misses with Refresh", res.CacheInfo)
	}
}

func TestExecuteOptionChangeMissesCache(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Document: sampleDoc()}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Document: sampleDoc(), Title: "Other"})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.DiagramHit {
		t.Error("a different title must not reuse the cached diagram")
	}
	if res.Diagram.Title != "Other" {
		t.Errorf("Title = %q, want Other", res.Diagram.Title)
	}
}

func TestExecutePartialRenderHit(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	if _, err := r.Execute(ctx, Options{Document: sampleDoc(), Formats: []string{FormatSVG}}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, Options{Document: sampleDoc(), Formats: []string{FormatSVG, FormatDOT, FormatSVG}})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("RenderHit should be false when any format was rendered")
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("got %d artifacts, want 2", len(res.Artifacts))
	}
}

func TestExecuteRawInput(t *testing.T) {
	r, _ := newTestRunner()
	res, err := r.Execute(context.Background(), Options{
		Input:       []byte("source,dest,qty\nA,X,10\nA,A,4\nB,X,-1\n"),
		InputFormat: "csv",
		Formats:     []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Stats.EdgeCount != 3 || res.Stats.DroppedEdges != 2 {
		t.Errorf("Stats = %+v, want 3 edges with 2 dropped", res.Stats)
	}
	if res.Diagram.TotalFlow != 10 {
		t.Errorf("TotalFlow = %v, want 10", res.Diagram.TotalFlow)
	}
}

func TestExecutePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.yaml")
	body := "title: Energy\nedges:\n  - {source: coal, dest: power, qty: 4}\n  - {source: gas, dest: power, qty: 6}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	r, _ := newTestRunner()
	res, err := r.Execute(context.Background(), Options{Path: path, Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Diagram.Title != "Energy" || res.Diagram.TotalFlow != 10 {
		t.Errorf("Diagram = %q total %v, want Energy total 10", res.Diagram.Title, res.Diagram.TotalFlow)
	}
}

func TestExecuteErrors(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()

	tests := []struct {
		name string
		opts Options
		code fverrors.Code
	}{
		{"missing input", Options{}, fverrors.ErrCodeInvalidInput},
		{"missing file", Options{Path: filepath.Join(t.TempDir(), "none.csv")}, fverrors.ErrCodeFileNotFound},
		{"garbage json", Options{Input: []byte("{"), InputFormat: "json"}, fverrors.ErrCodeInvalidInput},
		{"bad format", Options{Document: sampleDoc(), Formats: []string{"gif"}}, fverrors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(ctx, tt.opts)
			if err == nil {
				t.Fatal("Execute() should fail")
			}
			if got := fverrors.GetCode(err); got != tt.code {
				t.Errorf("Execute() code = %q, want %q (err = %v)", got, tt.code, err)
			}
		})
	}
}

func TestExecuteEmpty(t *testing.T) {
	r, _ := newTestRunner()
	res, err := r.Execute(context.Background(), Options{
		Input:       []byte(`{"edges": []}`),
		InputFormat: "json",
		Formats:     []string{FormatSVG},
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.Diagram.Empty() || res.Diagram.TotalFlow != 0 {
		t.Errorf("Diagram = %+v, want empty", res.Diagram)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "No flow") {
		t.Error("empty svg should show the placeholder")
	}
}

func TestRenderNodelinkDOT(t *testing.T) {
	r, _ := newTestRunner()
	ctx := context.Background()
	opts := Options{VizType: VizTypeNodelink, Formats: []string{FormatDOT}, Detailed: true}

	d, err := r.Build(ctx, *sampleDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := r.Render(ctx, d, opts)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	dot := string(artifacts[FormatDOT])
	if !strings.Contains(dot, `"source:A"`) || !strings.Contains(dot, `"target:X"`) {
		t.Errorf("dot missing column-qualified nodes:\n%s", dot)
	}
}

func TestRunnerResolver(t *testing.T) {
	r, _ := newTestRunner()
	calls := map[string]int{}
	r.UseResolver(names.Func(func(id string) (string, bool) {
		calls[id]++
		if id == "Y" {
			return "", false
		}
		return "dir-" + id, true
	}), 0)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		d, hit, err := r.BuildWithCacheInfo(ctx, *sampleDoc(), Options{Refresh: true})
		if err != nil {
			t.Fatalf("BuildWithCacheInfo() error: %v", err)
		}
		if hit {
			t.Error("refresh should bypass the diagram cache")
		}
		labels := map[string]string{}
		for _, n := range d.Nodes {
			labels[n.ID] = n.DisplayName
		}
		want := map[string]string{"A": "Alpha", "B": "dir-B", "X": "dir-X", "Y": "Y"}
		if !maps.Equal(labels, want) {
			t.Errorf("display names = %v, want %v", labels, want)
		}
	}
	for _, id := range []string{"B", "X", "Y"} {
		if calls[id] != 1 {
			t.Errorf("calls[%s] = %d, want 1", id, calls[id])
		}
	}
	if calls["A"] != 0 {
		t.Errorf("calls[A] = %d, want document name to win", calls["A"])
	}

	own := names.Map{"X": "Own"}
	d, err := r.Build(ctx, *sampleDoc(), Options{Resolver: own})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if n, ok := d.Node("X", layout.Target); !ok || n.DisplayName != "Own" {
		t.Errorf("Node(X) = %+v, %v, want option resolver to win", n, ok)
	}
}
