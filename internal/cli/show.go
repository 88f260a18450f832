package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	var (
		setRef      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "show [category]",
		Short: "Render a heatmap set in the terminal",
		Long: `Show renders one category's density grid as a colored terminal heatmap.
Without a category argument it prints the set summary; with --interactive it
opens a browser to flip through all categories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			set, err := resolveSet(cmd.Context(), cfg, setRef)
			if err != nil {
				return err
			}

			if interactive {
				model := newHeatBrowser(set)
				_, err := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
				return err
			}

			if len(args) == 0 {
				printRunStats(set)
				printNewline()
				for _, cat := range set.Categories {
					g := set.Grids[cat]
					printDetail("%-28s %d samples", string(cat), g.Samples)
				}
				return nil
			}

			category := heat.Category(args[0])
			grid, ok := set.Grid(category)
			if !ok {
				return fmt.Errorf("category %q not in set (have: %s)", args[0], categoryList(set))
			}

			fmt.Println(StyleTitle.Render(string(category)) + StyleDim.Render(fmt.Sprintf("  %d samples", grid.Samples)))
			printNewline()
			fmt.Println(renderGrid(grid))
			return nil
		},
	}

	cmd.Flags().StringVar(&setRef, "set", "latest", "heatset file, run ID, or \"latest\"")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse categories interactively")

	return cmd
}

// heatRamp is the low-to-high color gradient for grid cells, a classic
// thermal ramp over the 256-color palette.
var heatRamp = []lipgloss.Color{
	"17", "18", "19", "20", "26", "32", "38", "44",
	"49", "84", "118", "154", "184", "214", "208", "202", "196",
}

// rampColor maps a normalized cell value to a ramp color.
func rampColor(v float64) lipgloss.Color {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	idx := int(v * float64(len(heatRamp)-1))
	return heatRamp[idx]
}

// renderGrid renders a grid as colored cell blocks, two characters per cell
// so cells come out roughly square in a terminal.
func renderGrid(g heat.Grid) string {
	var b strings.Builder
	for row := 0; row < g.Rows; row++ {
		b.WriteString("  ")
		for col := 0; col < g.Cols; col++ {
			style := lipgloss.NewStyle().Foreground(rampColor(g.At(row, col)))
			b.WriteString(style.Render("██"))
		}
		if row < g.Rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// categoryList joins a set's categories for error messages.
func categoryList(set *heat.Set) string {
	names := make([]string, len(set.Categories))
	for i, c := range set.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
