package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		setRef  string
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP prediction service",
		Long: `Serve loads a heatmap set and answers scoring and placement queries over
HTTP until interrupted. The set is fixed for the lifetime of the process;
rebuild and restart to pick up a new aggregation run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			set, err := resolveSet(cmd.Context(), cfg, setRef)
			if err != nil {
				return err
			}
			c.Logger.Info("loaded heatset", "id", set.ID, "grid", fmt.Sprintf("%dx%d", set.Cols, set.Rows))

			respCache, err := newCache(cmd.Context(), cfg, noCache)
			if err != nil {
				return err
			}
			defer func() { _ = respCache.Close() }()

			opts := cfg.ScoreOptions()
			opts.Rows, opts.Cols = 0, 0

			srv, err := server.New(set, server.Options{
				Addr:         cfg.Server.Addr,
				ScoreOptions: opts,
				Cache:        respCache,
				TTL:          cfg.Cache.TTL.Std(),
				Logger:       c.Logger,
			})
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&setRef, "set", "latest", "heatset file, run ID, or \"latest\"")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response caching")

	return cmd
}
