package cli

import (
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/highlight"
)

func testDiagram() sankey.Diagram {
	return sankey.Build([]flow.Edge{
		{Source: "a", Dest: "x", Qty: 3},
		{Source: "a", Dest: "y", Qty: 1},
		{Source: "b", Dest: "x", Qty: 2},
	}, sankey.WithTitle("Test flows"))
}

func press(m exploreModel, msg tea.Msg) (exploreModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(exploreModel), cmd
}

func TestExploreInitialHover(t *testing.T) {
	m := newExploreModel(testDiagram())
	want := highlight.NodeHovered(m.diagram.Nodes[0].ID)
	if got := m.tracker.State(); got != want {
		t.Errorf("initial state = %v, want %v", got, want)
	}
}

func TestExploreNavigation(t *testing.T) {
	m := newExploreModel(testDiagram())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.cursor)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if want := highlight.NodeHovered(m.diagram.Nodes[1].ID); m.tracker.State() != want {
		t.Errorf("state after down = %v, want %v", m.tracker.State(), want)
	}

	for range 10 {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != len(m.diagram.Nodes)-1 {
		t.Errorf("cursor after many downs = %d, want %d", m.cursor, len(m.diagram.Nodes)-1)
	}
}

func TestExploreLinkPane(t *testing.T) {
	m := newExploreModel(testDiagram())

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneLinks || m.cursor != 0 {
		t.Fatalf("after tab pane = %v cursor = %d, want links at 0", m.pane, m.cursor)
	}
	if want := highlight.LinkHovered(m.diagram.Links[0]); m.tracker.State() != want {
		t.Errorf("state after tab = %v, want %v", m.tracker.State(), want)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if want := highlight.LinkHovered(m.diagram.Links[1]); m.tracker.State() != want {
		t.Errorf("state after down = %v, want %v", m.tracker.State(), want)
	}

	l := m.diagram.Links[1]
	var keys []string
	for _, n := range m.index.Nodes(m.tracker.State()) {
		keys = append(keys, n.Key())
	}
	slices.Sort(keys)
	if want := []string{"source:" + l.SourceID, "target:" + l.TargetID}; !slices.Equal(keys, want) {
		t.Errorf("lit nodes while %s→%s is hovered = %v, want %v", l.SourceID, l.TargetID, keys, want)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneNodes {
		t.Errorf("second tab pane = %v, want nodes", m.pane)
	}
}

func TestExploreEscClearsHover(t *testing.T) {
	m := newExploreModel(testDiagram())
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.tracker.State(); got != highlight.None() {
		t.Errorf("state after esc = %v, want none", got)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.tracker.State(); got == highlight.None() {
		t.Error("state after enter = none, want cursor element hovered")
	}
}

func TestExploreQuit(t *testing.T) {
	m := newExploreModel(testDiagram())
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q command = %T, want tea.QuitMsg", cmd())
	}
}

func TestExploreWindowSize(t *testing.T) {
	m := newExploreModel(testDiagram())
	m, _ = press(m, tea.WindowSizeMsg{Width: 80, Height: 4})
	if m.height != 5 {
		t.Errorf("height = %d, want floor of 5", m.height)
	}
}

func TestExploreView(t *testing.T) {
	m := newExploreModel(testDiagram())

	view := m.View()
	for _, want := range []string{"Test flows", "total 6", "Column", "source", "target", "node"} {
		if !strings.Contains(view, want) {
			t.Errorf("node view missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	view = m.View()
	for _, want := range []string{"From", "To", "Value", "link", "1/3 links"} {
		if !strings.Contains(view, want) {
			t.Errorf("link view missing %q:\n%s", want, view)
		}
	}
}

func TestExploreEmptyView(t *testing.T) {
	m := newExploreModel(sankey.Build(nil))
	if view := m.View(); !strings.Contains(view, "No flow") {
		t.Errorf("empty view = %q, want No flow", view)
	}

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if got := m.tracker.State(); got != highlight.None() {
		t.Errorf("empty diagram state = %v, want none", got)
	}
}
