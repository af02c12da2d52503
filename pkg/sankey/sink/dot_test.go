package sink

import (
	"context"
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	d := scenarioA()
	dot := ToDOT(d, DOTOptions{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		`"source:A" [label="Alpha & Co"`,
		`"source:A" -> "target:X"`,
		`"source:B" -> "target:X"`,
		`label="Scenario <A>"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q", want)
		}
	}
	if got := strings.Count(dot, "->"); got != len(d.Links) {
		t.Errorf("edges = %d, want %d", got, len(d.Links))
	}
	if strings.Contains(dot, `\n40`) {
		t.Error("plain DOT should not carry totals")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(scenarioA(), DOTOptions{Detailed: true})
	if !strings.Contains(dot, `label="Alpha & Co\n40"`) {
		t.Error("detailed node label missing total")
	}
	if !strings.Contains(dot, `label="30"`) {
		t.Error("detailed edge label missing value")
	}
}

func TestRenderGraphviz(t *testing.T) {
	svg, err := RenderGraphviz(context.Background(), ToDOT(scenarioA(), DOTOptions{}))
	if err != nil {
		t.Fatalf("RenderGraphviz() error: %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0`) {
		t.Errorf("RenderGraphviz() root not normalized: %.200s", svg)
	}
}

func TestRenderGraphviz_InvalidDOT(t *testing.T) {
	if _, err := RenderGraphviz(context.Background(), "digraph {"); err == nil {
		t.Error("RenderGraphviz() accepted malformed DOT")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "without viewBox",
			svg:  `<svg width="100" height="100">content</svg>`,
			want: `<svg width="100" height="100">content</svg>`,
		},
		{
			name: "zero size",
			svg:  `<svg viewBox="0 0 0 0">x</svg>`,
			want: `<svg viewBox="0 0 0 0">x</svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.svg))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}
