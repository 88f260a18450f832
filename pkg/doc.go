// Package pkg provides the core libraries for heatgrid layout intelligence.
//
// # Overview
//
// Heatgrid turns bounding-box annotations of poster layouts into per-category
// spatial density grids ("heatmaps"), then answers scoring and placement
// queries against them. The pkg directory is organized into four main areas:
//
//  1. [heat] - Domain logic (box mapping, aggregation, scoring, regions)
//  2. [annotations] - Ingestion (Label Studio export decoders)
//  3. [store] / [cache] - Persistence and response caching
//  4. [config] / [errors] / [observability] / [buildinfo] - Ambient concerns
//
// # Architecture
//
// The typical data flow through heatgrid:
//
//	Label Studio export (bulk JSON or per-task files)
//	         ↓
//	    [annotations] package (stream BoxRecords)
//	         ↓
//	    [heat] package (map → accumulate → smooth → normalize)
//	         ↓
//	    [store] package (persist the finalized Set)
//	         ↓
//	    scoring / regions queries (CLI or HTTP service)
//
// # Quick Start
//
// Aggregate an export and score a layout:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/posterlab/heatgrid/pkg/annotations"
//	    "github.com/posterlab/heatgrid/pkg/heat"
//	)
//
//	// 1. Stream annotations
//	f, _ := os.Open("export.json")
//	src := annotations.NewBulkSource(f, []heat.Category{"Title", "Time"})
//
//	// 2. Aggregate into a finalized set
//	agg, _ := heat.NewAggregator(heat.Options{Rows: 21, Cols: 12, Sigma: 1.0})
//	set, _ := heat.Run(context.Background(), src, agg)
//
//	// 3. Score a candidate layout
//	scorer, _ := heat.NewScorer(set, heat.ScoreOptions{})
//	score, _ := scorer.Score(layout)
//
// # Main Packages
//
// [heat] - The aggregation engine and scorer. Pure domain logic: areal-
// weighted box-to-grid mapping, per-category accumulators, shard merging,
// Gaussian smoothing, max normalization, top-region suggestion.
//
// [annotations] - Streaming decoders for Label Studio rectangle exports,
// both the single bulk JSON array and directories of per-task files.
//
// [store] - Heatset persistence: JSON files in a directory for CLI use, a
// MongoDB collection for the hosted prediction service.
//
// [cache] - Score-response caching keyed by run ID, with file, Redis, and
// null backends.
//
// [config] - TOML configuration with working defaults for every knob.
//
// [errors] - Structured error codes shared by the CLI and the HTTP API.
//
// [observability] - Hook interfaces for metrics and tracing backends,
// registered at startup, no-op by default.
//
// [buildinfo] - ldflags-injected version information.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/heat/...      # Specific package
//	go test -run Example        # Examples only
//
// [heat]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/heat
// [annotations]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/annotations
// [store]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/store
// [cache]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/cache
// [config]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/config
// [errors]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/errors
// [observability]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/posterlab/heatgrid/pkg/buildinfo
package pkg
