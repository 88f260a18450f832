// Package config loads heatgrid configuration from TOML files with sane
// defaults. Every knob has a working default, so a config file is optional:
// the CLI and server run with the stock 12x21 portrait grid and the standard
// poster category set out of the box.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// Duration wraps time.Duration so TOML values can be written in the usual
// "30s" / "1h" string form.
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default grid resolution. Posters are portrait, so rows > cols. These are
// plain config defaults, not assumptions baked into pkg/heat.
const (
	DefaultRows = 21
	DefaultCols = 12
)

// DefaultCategories is the stock poster annotation taxonomy.
var DefaultCategories = []string{
	"Title",
	"Location",
	"Time",
	"Host/organization",
	"Call-To-Action/Purpose",
	"Text descriptions/details",
}

// Config is the full heatgrid configuration tree.
type Config struct {
	Grid       GridConfig      `toml:"grid"`
	Categories []string        `toml:"categories"`
	Aggregate  AggregateConfig `toml:"aggregate"`
	Score      ScoreConfig     `toml:"score"`
	Server     ServerConfig    `toml:"server"`
	Cache      CacheConfig     `toml:"cache"`
	Store      StoreConfig     `toml:"store"`
}

// GridConfig controls heatmap resolution and smoothing.
type GridConfig struct {
	Rows    int     `toml:"rows"`
	Cols    int     `toml:"cols"`
	Sigma   float64 `toml:"sigma"`
	Epsilon float64 `toml:"epsilon"`
}

// AggregateConfig controls corpus aggregation behavior.
type AggregateConfig struct {
	// MalformedPolicy is "skip" or "fail_fast".
	MalformedPolicy string `toml:"malformed_policy"`
}

// ScoreConfig controls how per-element scores combine into an overall score.
type ScoreConfig struct {
	// Combination is "mean", "min", or "weighted".
	Combination string `toml:"combination"`

	// Weights maps category name to weight; used when Combination is
	// "weighted". Missing categories default to weight 1.
	Weights map[string]float64 `toml:"weights"`
}

// ServerConfig controls the HTTP prediction service.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects and configures the response cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the cache directory for the file backend.
	Dir string `toml:"dir"`

	// RedisAddr is host:port for the redis backend.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// TTL is the expiration for cached responses. Zero means no expiration.
	TTL Duration `toml:"ttl"`
}

// StoreConfig selects and configures heatset persistence.
type StoreConfig struct {
	// Backend is "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir is the heatset directory for the file backend.
	Dir string `toml:"dir"`

	// Mongo connection settings for the mongo backend.
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Grid: GridConfig{
			Rows:    DefaultRows,
			Cols:    DefaultCols,
			Sigma:   1.0,
			Epsilon: heat.DefaultEpsilon,
		},
		Categories: append([]string(nil), DefaultCategories...),
		Aggregate: AggregateConfig{
			MalformedPolicy: string(heat.PolicySkip),
		},
		Score: ScoreConfig{
			Combination: string(heat.CombinationMean),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Cache: CacheConfig{
			Backend: "none",
			TTL:     Duration(time.Hour),
		},
		Store: StoreConfig{
			Backend: "file",
			Dir:     "heatsets",
		},
	}
}

// Load reads a TOML config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Loaded configs are validated
// automatically; callers that build a Config by hand should call it too.
func (c *Config) Validate() error {
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return fmt.Errorf("grid resolution must be positive, got %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	if c.Grid.Sigma < 0 {
		return fmt.Errorf("sigma must be non-negative, got %g", c.Grid.Sigma)
	}
	if c.Grid.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %g", c.Grid.Epsilon)
	}
	if err := heat.ValidatePolicy(heat.Policy(c.Aggregate.MalformedPolicy)); err != nil {
		return err
	}
	if err := heat.ValidateCombination(heat.Combination(c.Score.Combination)); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case "file", "mongo":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// HeatCategories converts the configured category names to heat.Category.
func (c *Config) HeatCategories() []heat.Category {
	out := make([]heat.Category, len(c.Categories))
	for i, name := range c.Categories {
		out[i] = heat.Category(name)
	}
	return out
}

// AggregatorOptions builds heat aggregation options from the config.
func (c *Config) AggregatorOptions() heat.Options {
	return heat.Options{
		Rows:       c.Grid.Rows,
		Cols:       c.Grid.Cols,
		Categories: c.HeatCategories(),
		Policy:     heat.Policy(c.Aggregate.MalformedPolicy),
		Sigma:      c.Grid.Sigma,
		Epsilon:    c.Grid.Epsilon,
	}
}

// ScoreOptions builds layout-scoring options from the config.
func (c *Config) ScoreOptions() heat.ScoreOptions {
	var weights map[heat.Category]float64
	if len(c.Score.Weights) > 0 {
		weights = make(map[heat.Category]float64, len(c.Score.Weights))
		for name, w := range c.Score.Weights {
			weights[heat.Category(name)] = w
		}
	}
	return heat.ScoreOptions{
		Combination: heat.Combination(c.Score.Combination),
		Weights:     weights,
		Rows:        c.Grid.Rows,
		Cols:        c.Grid.Cols,
		Epsilon:     c.Grid.Epsilon,
	}
}
