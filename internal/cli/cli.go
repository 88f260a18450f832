// Package cli implements the heatgrid command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/posterlab/heatgrid/pkg/buildinfo"
	"github.com/posterlab/heatgrid/pkg/cache"
	"github.com/posterlab/heatgrid/pkg/config"
	"github.com/posterlab/heatgrid/pkg/heat"
	"github.com/posterlab/heatgrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "heatgrid"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag value, resolved in PersistentPreRun.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "heatgrid",
		Short:        "Heatgrid aggregates layout annotations into placement heatmaps",
		Long:         `Heatgrid turns bounding-box annotations of poster layouts into per-category spatial density grids, then scores candidate layouts and suggests placement regions against them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "path to TOML config file")

	// Register all subcommands
	root.AddCommand(c.aggregateCommand())
	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.regionsCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the --config file, or the defaults when none was given.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.ConfigPath)
}

// =============================================================================
// Backend Factories
// =============================================================================

// newStore builds the configured heatset store.
func newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "mongo":
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		})
	default:
		return store.NewFileStore(cfg.Store.Dir)
	}
}

// newCache builds the configured response cache. noCache forces the null
// backend regardless of config.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	default:
		return cache.NewNullCache(), nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/heatgrid/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Set Resolution
// =============================================================================

// resolveSet loads a heatmap set for query commands. ref is either a path to
// a heatset JSON file, a run ID in the configured store, or empty / "latest"
// for the most recent stored set.
func resolveSet(ctx context.Context, cfg config.Config, ref string) (*heat.Set, error) {
	if ref != "" && ref != "latest" {
		if _, err := os.Stat(ref); err == nil {
			data, err := os.ReadFile(ref)
			if err != nil {
				return nil, fmt.Errorf("read heatset: %w", err)
			}
			return heat.UnmarshalSet(data)
		}
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close(ctx) }()

	if ref == "" || ref == "latest" {
		return st.Latest(ctx)
	}
	return st.Load(ctx, ref)
}
