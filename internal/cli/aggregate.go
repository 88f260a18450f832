package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/annotations"
	"github.com/posterlab/heatgrid/pkg/config"
	"github.com/posterlab/heatgrid/pkg/heat"
)

// aggregateCommand creates the aggregate command.
func (c *CLI) aggregateCommand() *cobra.Command {
	var (
		output  string
		save    bool
		rows    int
		cols    int
		sigma   float64
		policy  string
		noSigma bool
	)

	cmd := &cobra.Command{
		Use:   "aggregate <export.json|export-dir>",
		Short: "Aggregate an annotation export into a heatmap set",
		Long: `Aggregate reads a Label Studio export (a bulk JSON file or a directory of
per-task JSON files) and builds one normalized density grid per category.

The result is written as a heatset JSON file with --output, persisted to the
configured store with --save, or both.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyGridFlags(&cfg, cmd, rows, cols, sigma, noSigma)
			if cmd.Flags().Changed("policy") {
				cfg.Aggregate.MalformedPolicy = policy
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !save && output == "" {
				return fmt.Errorf("nothing to do: pass --output and/or --save")
			}

			src, closeSrc, err := openSource(args[0], cfg.HeatCategories())
			if err != nil {
				return err
			}
			defer closeSrc()

			aggOpts := cfg.AggregatorOptions()
			aggOpts.Logger = c.Logger
			agg, err := heat.NewAggregator(aggOpts)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			spin := newSpinnerWithContext(cmd.Context(), "Aggregating annotations")
			spin.Start()
			set, err := heat.Run(cmd.Context(), src, agg)
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Aggregated %d annotations from %d layouts", set.SampleCount, set.LayoutCount))

			if output != "" {
				data, err := heat.MarshalSet(set)
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("write heatset: %w", err)
				}
				printFile(output)
			}

			if save {
				st, err := newStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer func() { _ = st.Close(cmd.Context()) }()
				if err := st.Save(cmd.Context(), set); err != nil {
					return err
				}
				printSuccess("Saved heatset %s", set.ID)
			}

			printRunStats(set)
			printNextStep("Inspect it", fmt.Sprintf("heatgrid show --set %s", setRef(output, set)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the heatset JSON to this file")
	cmd.Flags().BoolVar(&save, "save", false, "persist the heatset to the configured store")
	cmd.Flags().IntVar(&rows, "rows", 0, "override grid rows")
	cmd.Flags().IntVar(&cols, "cols", 0, "override grid cols")
	cmd.Flags().Float64Var(&sigma, "sigma", 0, "override Gaussian smoothing sigma (cells)")
	cmd.Flags().BoolVar(&noSigma, "no-smooth", false, "disable Gaussian smoothing")
	cmd.Flags().StringVar(&policy, "policy", "", "malformed record policy: skip or fail_fast")

	return cmd
}

// applyGridFlags layers explicit grid flags over the config file values.
func applyGridFlags(cfg *config.Config, cmd *cobra.Command, rows, cols int, sigma float64, noSigma bool) {
	if cmd.Flags().Changed("rows") {
		cfg.Grid.Rows = rows
	}
	if cmd.Flags().Changed("cols") {
		cfg.Grid.Cols = cols
	}
	if cmd.Flags().Changed("sigma") {
		cfg.Grid.Sigma = sigma
	}
	if noSigma {
		cfg.Grid.Sigma = 0
	}
}

// openSource builds an annotation source for a bulk export file or a
// directory of per-task files.
func openSource(path string, categories []heat.Category) (heat.Source, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open annotations: %w", err)
	}

	if info.IsDir() {
		src, err := annotations.NewDirSource(path, categories)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open annotations: %w", err)
	}
	return annotations.NewBulkSource(f, categories), func() { _ = f.Close() }, nil
}

// printRunStats prints a summary block for a finalized set.
func printRunStats(set *heat.Set) {
	printKeyValue("Run ID", set.ID)
	printKeyValue("Grid", fmt.Sprintf("%dx%d", set.Cols, set.Rows))
	printKeyValue("Categories", fmt.Sprintf("%d", len(set.Categories)))
	printKeyValue("Samples", fmt.Sprintf("%d", set.SampleCount))
	printKeyValue("Layouts", fmt.Sprintf("%d", set.LayoutCount))
	if set.SkippedCount > 0 {
		printWarning("Skipped %d malformed records", set.SkippedCount)
	}
}

// setRef picks the friendliest reference for follow-up commands: the output
// file when one was written, otherwise the run ID.
func setRef(output string, set *heat.Set) string {
	if output != "" {
		return output
	}
	return set.ID
}
