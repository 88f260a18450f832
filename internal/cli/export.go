package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/config"
	"github.com/posterlab/heatgrid/pkg/heat"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output string
		rows   int
		cols   int
		sigma  float64
	)

	cmd := &cobra.Command{
		Use:   "export <export.json|export-dir>",
		Short: "Export per-layout heatmap prompt blocks as JSONL",
		Long: `Export converts each annotated layout into a fine-tuning prompt block: a
"FRAME_PCT 100 100" frame line followed by one "<category>_heat v v ..."
line per category, each layout's grids smoothed and normalized on their own.
One JSON chat row is written per layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyGridFlags(&cfg, cmd, rows, cols, sigma, false)
			if err := cfg.Validate(); err != nil {
				return err
			}

			src, closeSrc, err := openSource(args[0], cfg.HeatCategories())
			if err != nil {
				return err
			}
			defer closeSrc()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			prog := newProgress(c.Logger)
			count, err := writePromptRows(out, src, cfg)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Exported %d layouts", count))
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSONL to this file (default stdout)")
	cmd.Flags().IntVar(&rows, "rows", 0, "override grid rows")
	cmd.Flags().IntVar(&cols, "cols", 0, "override grid cols")
	cmd.Flags().Float64Var(&sigma, "sigma", 0, "override Gaussian smoothing sigma (cells)")

	return cmd
}

// promptRow is one JSONL line: a chat triple whose user message carries the
// layout's heat block.
type promptRow struct {
	Messages []promptMessage `json:"messages"`
}

type promptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// writePromptRows streams records from src, groups them by layout (records
// for one layout arrive contiguously from both source kinds), and writes one
// prompt row per layout.
func writePromptRows(w io.Writer, src heat.Source, cfg config.Config) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	var (
		current string
		boxes   []heat.BoxRecord
		count   int
	)

	flush := func() error {
		if len(boxes) == 0 {
			return nil
		}
		block, err := layoutHeatBlock(boxes, cfg)
		if err != nil {
			return fmt.Errorf("layout %s: %w", current, err)
		}
		count++
		return enc.Encode(promptRow{Messages: []promptMessage{
			{Role: "system", Content: "<LAYOUT_HEAT> Predict bounding boxes."},
			{Role: "user", Content: block},
			{Role: "assistant", Content: ""},
		}})
	}

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}
		if rec.LayoutID != current {
			if err := flush(); err != nil {
				return count, err
			}
			current = rec.LayoutID
			boxes = boxes[:0]
		}
		boxes = append(boxes, rec)
	}
	if err := flush(); err != nil {
		return count, err
	}
	return count, bw.Flush()
}

// layoutHeatBlock builds the heat block for one layout: every declared
// category gets a line, in declared order, zero grids included.
func layoutHeatBlock(boxes []heat.BoxRecord, cfg config.Config) (string, error) {
	opts := cfg.AggregatorOptions()
	agg, err := heat.NewAggregator(opts)
	if err != nil {
		return "", err
	}
	for _, b := range boxes {
		if err := agg.Absorb(b); err != nil {
			if opts.Policy == heat.PolicySkip {
				agg.CountSkipped()
				continue
			}
			return "", err
		}
	}
	set, err := agg.Finalize()
	if err != nil {
		return "", err
	}

	lines := []string{"FRAME_PCT 100 100"}
	for _, cat := range set.Categories {
		g := set.Grids[cat]
		values := make([]string, len(g.Cells))
		for i, v := range g.Cells {
			values[i] = fmt.Sprintf("%.1f", v)
		}
		lines = append(lines, heatTag(cat)+" "+strings.Join(values, " "))
	}
	return strings.Join(lines, "\n"), nil
}

// heatTag derives the prompt-line tag from a category name:
// "Host/organization" becomes "host_organization_heat".
func heatTag(c heat.Category) string {
	tag := strings.ToLower(string(c))
	tag = strings.ReplaceAll(tag, "/", "_")
	tag = strings.ReplaceAll(tag, " ", "_")
	return tag + "_heat"
}
