// Package heat implements the annotation-to-grid aggregation engine and the
// layout-scoring queries built on top of it.
//
// # Overview
//
// The package converts bounding-box annotations of poster layouts into
// fixed-resolution spatial-density grids, one per element category. Across
// many annotated posters the grids summarize where each category of element
// statistically tends to appear. A finalized set of grids can then be queried
// to score a new, unannotated layout or to suggest placement regions.
//
// # Pipeline
//
// Data flows through four stages:
//
//  1. BoxRecord: one annotated bounding box plus its category and the source
//     canvas size. See [BoxRecord].
//  2. Mapping: [MapBox] projects a box onto an R×C grid, distributing its
//     contribution over the cells it overlaps proportionally to the covered
//     area (areal-weighted coverage).
//  3. Accumulation: an [Aggregator] routes records to one [Accumulator] per
//     category and keeps running density grids. Aggregation is a single
//     streaming pass; the corpus never needs to be resident in memory.
//  4. Finalization: [Aggregator.Finalize] applies optional Gaussian smoothing
//     and per-category max-normalization and produces an immutable [Set].
//
// # Querying
//
// A [Scorer] holds a read-only reference to a finalized [Set] and computes
// per-element placement scores as the coverage-weighted average of normalized
// grid values. Because the Set is immutable, any number of Scorers may share
// it concurrently without locking.
//
// # Sharding
//
// Accumulation is commutative and associative over records, so a corpus may
// be split across independent Aggregators and merged with [Aggregator.Merge]
// before finalization. Normalization must happen exactly once, which
// Finalize guarantees.
//
// # Usage
//
//	agg, err := heat.NewAggregator(heat.Options{
//	    Rows:       21,
//	    Cols:       12,
//	    Categories: categories,
//	})
//	if err != nil {
//	    return err
//	}
//	set, err := heat.Run(ctx, src, agg)
//	if err != nil {
//	    return err
//	}
//
//	scorer, err := heat.NewScorer(set, heat.ScoreOptions{})
//	if err != nil {
//	    return err
//	}
//	score, err := scorer.Score(layout)
package heat
