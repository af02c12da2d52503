package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/highlight"
	"github.com/matzehuels/flowview/pkg/sankey/layout"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// exploreCommand creates the interactive terminal explorer.
func (c *CLI) exploreCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "explore [edges file | diagram.json]",
		Short: "Browse a flow diagram's nodes and links in the terminal",
		Long: `Browse a flow diagram interactively.

Moving the cursor over a node highlights every link touching that entity in
either column; moving over a link highlights just that link. This is the
same hover logic the interactive SVG uses.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.loadDiagram(cmd.Context(), cmd, args[0], flags)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newExploreModel(d), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "", "input format: json, yaml, toml, csv (default: from extension)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}

// loadDiagram reads a diagram file or builds one from an edge list.
func (c *CLI) loadDiagram(ctx context.Context, cmd *cobra.Command, input string, flags renderFlags) (sankey.Diagram, error) {
	if isDiagramFile(input) {
		return readDiagram(input)
	}
	cfg, err := c.config()
	if err != nil {
		return sankey.Diagram{}, err
	}
	opts := optionsFromConfig(cfg)
	opts.Logger = c.Logger
	if err := setInput(&opts, input, flags.inputFormat, cmd.InOrStdin()); err != nil {
		return sankey.Diagram{}, err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return sankey.Diagram{}, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := runner.Decode(ctx, opts)
	if err != nil {
		return sankey.Diagram{}, err
	}
	return runner.Build(ctx, doc, opts)
}

// =============================================================================
// exploreModel
// =============================================================================

type explorePane int

const (
	paneNodes explorePane = iota
	paneLinks
)

// exploreModel lists one pane of the diagram at a time. The row under the
// cursor is the hovered element.
type exploreModel struct {
	diagram sankey.Diagram
	index   *highlight.Index
	tracker highlight.Tracker

	pane   explorePane
	cursor int
	offset int
	height int
}

func newExploreModel(d sankey.Diagram) exploreModel {
	m := exploreModel{
		diagram: d,
		index:   highlight.NewIndex(d.Nodes, d.Links),
		height:  15,
	}
	m.hover()
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.pane = 1 - m.pane
			m.cursor, m.offset = 0, 0
			m.hover()
		case "esc":
			m.tracker.Leave()
		case "enter":
			m.hover()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
				m.hover()
			}
		case "down", "j":
			if m.cursor < m.rows()-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
				m.hover()
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

// rows returns the number of entries in the active pane.
func (m exploreModel) rows() int {
	if m.pane == paneLinks {
		return len(m.diagram.Links)
	}
	return len(m.diagram.Nodes)
}

// hover moves the tracker to the element under the cursor.
func (m *exploreModel) hover() {
	if m.cursor >= m.rows() {
		m.tracker.Leave()
		return
	}
	if m.pane == paneLinks {
		m.tracker.Enter(highlight.LinkHovered(m.diagram.Links[m.cursor]))
		return
	}
	m.tracker.Enter(highlight.NodeHovered(m.diagram.Nodes[m.cursor].ID))
}

func (m exploreModel) View() string {
	var b strings.Builder

	title := m.diagram.Title
	if title == "" {
		title = "Flow diagram"
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("total %s", formatValue(m.diagram.TotalFlow))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ hover  tab nodes/links  esc clear  q quit"))
	b.WriteString("\n\n")

	if m.diagram.Empty() {
		b.WriteString(listDimStyle.Render("No flow"))
		b.WriteString("\n")
		return b.String()
	}

	if m.pane == paneLinks {
		b.WriteString(m.linkTable())
	} else {
		b.WriteString(m.nodeTable())
	}
	b.WriteString("\n\n")
	b.WriteString(m.status())
	return b.String()
}

func (m exploreModel) window() (int, int) {
	return m.offset, min(m.offset+m.height, m.rows())
}

func (m exploreModel) nodeTable() string {
	state := m.tracker.State()
	start, end := m.window()

	rows := make([][]string, 0, end-start)
	lit := make([]bool, 0, end-start)
	for i := start; i < end; i++ {
		n := m.diagram.Nodes[i]
		rows = append(rows, []string{cursorMark(i == m.cursor), n.Column.String(), n.DisplayName, formatValue(n.TotalValue)})
		lit = append(lit, highlight.IsNodeHighlighted(state, n))
	}
	return m.table([]string{"", "Column", "Name", "Total"}, rows, lit, start)
}

func (m exploreModel) linkTable() string {
	state := m.tracker.State()
	start, end := m.window()

	rows := make([][]string, 0, end-start)
	lit := make([]bool, 0, end-start)
	for i := start; i < end; i++ {
		l := m.diagram.Links[i]
		rows = append(rows, []string{
			cursorMark(i == m.cursor), strconv.Itoa(l.Index),
			m.displayName(l.SourceID, layout.Source), m.displayName(l.TargetID, layout.Target),
			formatValue(l.Value),
		})
		lit = append(lit, highlight.IsLinkHighlighted(state, l))
	}
	return m.table([]string{"", "#", "From", "To", "Value"}, rows, lit, start)
}

// table renders rows, dimming those that are not highlighted.
func (m exploreModel) table(headers []string, rows [][]string, lit []bool, start int) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return listHeaderStyle
			case row < 0 || row >= len(lit):
				return lipgloss.NewStyle()
			case start+row == m.cursor:
				return listSelectedStyle
			case lit[row]:
				return listNormalStyle
			}
			return listDimStyle
		}).
		Render()
}

func (m exploreModel) status() string {
	state := m.tracker.State()
	links := m.index.Links(state)
	nodes := m.index.Nodes(state)
	return listDimStyle.Render(fmt.Sprintf("  %s · %d/%d links · %d/%d nodes · [%d/%d]",
		state, len(links), len(m.diagram.Links), len(nodes), len(m.diagram.Nodes), m.cursor+1, m.rows()))
}

func (m exploreModel) displayName(id string, col layout.Column) string {
	if n, ok := m.diagram.Node(id, col); ok {
		return n.DisplayName
	}
	return id
}

func cursorMark(current bool) string {
	if current {
		return "▸"
	}
	return " "
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
