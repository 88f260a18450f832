package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// heatBrowser - Interactive category heatmap browser
// =============================================================================

// heatBrowser is the bubbletea model for flipping through a set's category
// heatmaps side by side with the category list.
type heatBrowser struct {
	set    *heat.Set
	cursor int
}

// newHeatBrowser creates a browser over a finalized set.
func newHeatBrowser(set *heat.Set) heatBrowser {
	return heatBrowser{set: set}
}

func (m heatBrowser) Init() tea.Cmd {
	return nil
}

func (m heatBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j", "right", "l":
			if m.cursor < len(m.set.Categories)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m heatBrowser) View() string {
	if len(m.set.Categories) == 0 {
		return listDimStyle.Render("set contains no categories")
	}

	var b strings.Builder

	b.WriteString(StyleTitle.Render("Heatmap Browser"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  set %s · %dx%d", m.set.ID, m.set.Cols, m.set.Rows)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ switch category  q quit"))
	b.WriteString("\n\n")

	var list strings.Builder
	for i, cat := range m.set.Categories {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		g := m.set.Grids[cat]
		line := fmt.Sprintf("%s%-28s %4d", cursor, string(cat), g.Samples)
		if i == m.cursor {
			list.WriteString(listSelectedStyle.Render(line))
		} else {
			list.WriteString(listNormalStyle.Render(line))
		}
		list.WriteString("\n")
	}

	current := m.set.Categories[m.cursor]
	grid := renderGrid(m.set.Grids[current])

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list.String(), "   ", grid))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.cursor+1, len(m.set.Categories), string(current))))

	return b.String()
}
