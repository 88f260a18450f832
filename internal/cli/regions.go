package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// regionsCommand creates the regions command.
func (c *CLI) regionsCommand() *cobra.Command {
	var (
		setRef string
		k      int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "regions <category>",
		Short: "Suggest the hottest placement cells for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			set, err := resolveSet(cmd.Context(), cfg, setRef)
			if err != nil {
				return err
			}

			regions, err := set.TopRegions(heat.Category(args[0]), k)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(regions, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printKeyValue("Set", set.ID)
			printKeyValue("Category", args[0])
			printNewline()
			for i, r := range regions {
				fmt.Printf("  %2d. row %2d  col %2d  %s\n",
					i+1, r.Row, r.Col, StyleNumber.Render(fmt.Sprintf("%.3f", r.Value)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&setRef, "set", "latest", "heatset file, run ID, or \"latest\"")
	cmd.Flags().IntVarP(&k, "top", "k", 5, "number of cells to suggest")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")

	return cmd
}
