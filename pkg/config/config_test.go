package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/posterlab/heatgrid/pkg/heat"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heatgrid.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Grid.Rows != 21 || cfg.Grid.Cols != 12 {
		t.Errorf("default grid = %dx%d, want 21x12", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if cfg.Grid.Sigma != 1.0 {
		t.Errorf("default sigma = %g, want 1.0", cfg.Grid.Sigma)
	}
	if cfg.Aggregate.MalformedPolicy != "skip" {
		t.Errorf("default policy = %q, want skip", cfg.Aggregate.MalformedPolicy)
	}
	if cfg.Score.Combination != "mean" {
		t.Errorf("default combination = %q, want mean", cfg.Score.Combination)
	}
	if len(cfg.Categories) != 6 {
		t.Errorf("default categories = %d, want 6", len(cfg.Categories))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
categories = ["Title", "Time"]

[grid]
rows = 10
cols = 8

[score]
combination = "weighted"

[score.weights]
Title = 2.0

[cache]
backend = "file"
dir = "/tmp/heatgrid-cache"
ttl = "30m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Grid.Rows != 10 || cfg.Grid.Cols != 8 {
		t.Errorf("grid = %dx%d, want 10x8", cfg.Grid.Rows, cfg.Grid.Cols)
	}
	// Untouched sections keep their defaults.
	if cfg.Grid.Sigma != 1.0 {
		t.Errorf("sigma = %g, want default 1.0", cfg.Grid.Sigma)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want default :8080", cfg.Server.Addr)
	}
	if cfg.Score.Combination != "weighted" {
		t.Errorf("combination = %q, want weighted", cfg.Score.Combination)
	}
	if cfg.Score.Weights["Title"] != 2.0 {
		t.Errorf("Title weight = %g, want 2.0", cfg.Score.Weights["Title"])
	}
	if cfg.Cache.TTL.Std() != 30*time.Minute {
		t.Errorf("ttl = %v, want 30m", cfg.Cache.TTL.Std())
	}
	if len(cfg.Categories) != 2 {
		t.Errorf("categories = %v, want the two from the file", cfg.Categories)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero rows", "[grid]\nrows = 0"},
		{"negative sigma", "[grid]\nsigma = -1.0"},
		{"bad policy", "[aggregate]\nmalformed_policy = \"ignore\""},
		{"bad combination", "[score]\ncombination = \"max\""},
		{"bad cache backend", "[cache]\nbackend = \"memcached\""},
		{"bad store backend", "[store]\nbackend = \"postgres\""},
		{"not toml", "{\"rows\": 3}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAggregatorOptions(t *testing.T) {
	cfg := Default()
	cfg.Categories = []string{"Title"}

	opts := cfg.AggregatorOptions()
	if opts.Rows != cfg.Grid.Rows || opts.Cols != cfg.Grid.Cols {
		t.Errorf("options grid = %dx%d, want %dx%d", opts.Rows, opts.Cols, cfg.Grid.Rows, cfg.Grid.Cols)
	}
	if opts.Policy != heat.PolicySkip {
		t.Errorf("policy = %q, want skip", opts.Policy)
	}
	if len(opts.Categories) != 1 || opts.Categories[0] != heat.Category("Title") {
		t.Errorf("categories = %v", opts.Categories)
	}
}

func TestScoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Score.Combination = "weighted"
	cfg.Score.Weights = map[string]float64{"Title": 3}

	opts := cfg.ScoreOptions()
	if opts.Combination != heat.CombinationWeighted {
		t.Errorf("combination = %q, want weighted", opts.Combination)
	}
	if opts.Weights[heat.Category("Title")] != 3 {
		t.Errorf("weights = %v", opts.Weights)
	}
}
