package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// layoutFile is the on-disk shape of a candidate layout, matching the
// POST /v1/score request body.
type layoutFile struct {
	Elements []heat.BoxRecord `json:"elements"`
}

// scoreCommand creates the score command.
func (c *CLI) scoreCommand() *cobra.Command {
	var (
		setRef      string
		combination string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "score <layout.json>",
		Short: "Score a candidate layout against a heatmap set",
		Long: `Score reads a layout file ({"elements": [...]}, coordinates in canvas
units) and reports how plausibly each element is placed relative to the
aggregated corpus, plus a combined overall score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("combination") {
				cfg.Score.Combination = combination
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read layout: %w", err)
			}
			var layout layoutFile
			if err := json.Unmarshal(data, &layout); err != nil {
				return fmt.Errorf("decode layout: %w", err)
			}

			set, err := resolveSet(cmd.Context(), cfg, setRef)
			if err != nil {
				return err
			}

			opts := cfg.ScoreOptions()
			// The set on disk wins over the config's expected resolution;
			// scoring adapts to whatever grid the set was built at.
			opts.Rows, opts.Cols = 0, 0
			scorer, err := heat.NewScorer(set, opts)
			if err != nil {
				return err
			}

			result, err := scorer.Score(layout.Elements)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			printKeyValue("Set", set.ID)
			printKeyValue("Overall", fmt.Sprintf("%.3f", result.Overall))
			printNewline()
			for _, e := range result.Elements {
				printElementScore(e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&setRef, "set", "latest", "heatset file, run ID, or \"latest\"")
	cmd.Flags().StringVar(&combination, "combination", "", "score combination: mean, min, or weighted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON result")

	return cmd
}

// printElementScore prints one element line with a score bar.
func printElementScore(e heat.ElementScore) {
	if e.Neutral {
		printDetail("%-28s %s", string(e.Category), "neutral (category not in corpus)")
		return
	}
	fmt.Printf("  %-28s %s %.3f\n", string(e.Category), scoreBar(e.Score, 20), e.Score)
}

// scoreBar renders a fixed-width unicode bar for a score in [0,1].
func scoreBar(score float64, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*float64(width) + 0.5)
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return StyleHighlight.Render(bar)
}
