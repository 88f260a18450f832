package heat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"testing"
)

func newTestAggregator(t *testing.T, opts Options) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(opts)
	if err != nil {
		t.Fatalf("NewAggregator error: %v", err)
	}
	return agg
}

func runCorpus(t *testing.T, opts Options, records []BoxRecord) *Set {
	t.Helper()
	agg := newTestAggregator(t, opts)
	set, err := Run(context.Background(), NewSliceSource(records), agg)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return set
}

func TestRunConcreteScenario(t *testing.T) {
	// Three "title" boxes covering cell (0,0) exactly, at 2x2 resolution.
	// The finalized title grid is [[1,0],[0,0]].
	records := []BoxRecord{
		box("title", 0, 0, 50, 50, 100, 100),
		box("title", 0, 0, 50, 50, 100, 100),
		box("title", 0, 0, 50, 50, 100, 100),
	}
	set := runCorpus(t, Options{Rows: 2, Cols: 2}, records)

	g, ok := set.Grid("title")
	if !ok {
		t.Fatal("title grid missing from finalized set")
	}
	want := []float64{1, 0, 0, 0}
	for i, v := range g.Cells {
		if math.Abs(v-want[i]) > tolerance {
			t.Errorf("cell %d = %g, want %g", i, v, want[i])
		}
	}
	if g.Samples != 3 {
		t.Errorf("title samples = %d, want 3", g.Samples)
	}
	if set.SampleCount != 3 {
		t.Errorf("set sample count = %d, want 3", set.SampleCount)
	}
}

func TestRunEmptyCorpusWithDeclaredCategories(t *testing.T) {
	// Declared categories are present as all-zero grids; no error anywhere.
	categories := []Category{"title", "location", "time"}
	set := runCorpus(t, Options{Rows: 4, Cols: 3, Categories: categories}, nil)

	if set.SampleCount != 0 {
		t.Errorf("sample count = %d, want 0", set.SampleCount)
	}
	if len(set.Categories) != len(categories) {
		t.Fatalf("got %d categories, want %d", len(set.Categories), len(categories))
	}
	for _, c := range categories {
		g, ok := set.Grid(c)
		if !ok {
			t.Fatalf("category %q missing", c)
		}
		if g.Max() != 0 {
			t.Errorf("category %q grid should be all-zero", c)
		}
	}

	// Scoring against the empty set returns neutral-zero scores, no error.
	scorer, err := NewScorer(set, ScoreOptions{})
	if err != nil {
		t.Fatalf("NewScorer error: %v", err)
	}
	score, err := scorer.Score([]BoxRecord{box("title", 0, 0, 50, 50, 100, 100)})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if score.Overall != 0 {
		t.Errorf("score against empty corpus = %g, want 0", score.Overall)
	}
}

func TestRunEmptyCorpusNoCategories(t *testing.T) {
	agg := newTestAggregator(t, Options{Rows: 2, Cols: 2})
	_, err := Run(context.Background(), NewSliceSource(nil), agg)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Run error = %v, want ErrEmptyCorpus", err)
	}
}

func TestRunLazyCategoryCreation(t *testing.T) {
	// Undeclared categories are accumulated as first seen.
	records := []BoxRecord{
		box("title", 0, 0, 50, 50, 100, 100),
		box("logo", 50, 50, 100, 100, 100, 100),
	}
	set := runCorpus(t, Options{Rows: 2, Cols: 2, Categories: []Category{"title"}}, records)

	if _, ok := set.Grid("logo"); !ok {
		t.Error("lazily created category missing from set")
	}
	if len(set.Categories) != 2 {
		t.Errorf("got %d categories, want 2", len(set.Categories))
	}
}

func TestAccumulationOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var records []BoxRecord
	for i := 0; i < 40; i++ {
		x0 := rng.Float64() * 90
		y0 := rng.Float64() * 90
		records = append(records, BoxRecord{
			Category: Category([]string{"title", "location", "time"}[i%3]),
			X0:       x0, Y0: y0,
			X1: x0 + 1 + rng.Float64()*9, Y1: y0 + 1 + rng.Float64()*9,
			CanvasW: 100, CanvasH: 100,
		})
	}

	opts := Options{Rows: 21, Cols: 12}
	base := runCorpus(t, opts, records)

	shuffled := append([]BoxRecord(nil), records...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	permuted := runCorpus(t, opts, shuffled)

	for _, c := range base.Categories {
		bg, _ := base.Grid(c)
		pg, ok := permuted.Grid(c)
		if !ok {
			t.Fatalf("category %q missing after permutation", c)
		}
		for i := range bg.Cells {
			if math.Abs(bg.Cells[i]-pg.Cells[i]) > 1e-12 {
				t.Fatalf("category %q cell %d differs: %g vs %g", c, i, bg.Cells[i], pg.Cells[i])
			}
		}
	}
}

func TestShardMergeEqualsFullAggregation(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var records []BoxRecord
	for i := 0; i < 30; i++ {
		x0 := rng.Float64() * 80
		y0 := rng.Float64() * 80
		records = append(records, BoxRecord{
			Category: Category([]string{"title", "image"}[i%2]),
			LayoutID: fmt.Sprintf("poster-%d", i/3),
			X0:       x0, Y0: y0,
			X1: x0 + 5 + rng.Float64()*15, Y1: y0 + 5 + rng.Float64()*15,
			CanvasW: 100, CanvasH: 100,
		})
	}

	opts := Options{Rows: 12, Cols: 8}
	full := runCorpus(t, opts, records)

	// Split into two shards, aggregate independently, merge, finalize once.
	shardA := newTestAggregator(t, opts)
	shardB := newTestAggregator(t, opts)
	for i, r := range records {
		target := shardA
		if i%2 == 1 {
			target = shardB
		}
		if err := target.Absorb(r); err != nil {
			t.Fatalf("Absorb error: %v", err)
		}
	}
	if err := shardA.Merge(shardB); err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	merged, err := shardA.Finalize()
	if err != nil {
		t.Fatalf("Finalize error: %v", err)
	}

	if merged.SampleCount != full.SampleCount {
		t.Errorf("merged samples = %d, want %d", merged.SampleCount, full.SampleCount)
	}
	if merged.LayoutCount != full.LayoutCount {
		t.Errorf("merged layouts = %d, want %d", merged.LayoutCount, full.LayoutCount)
	}
	for _, c := range full.Categories {
		fg, _ := full.Grid(c)
		mg, ok := merged.Grid(c)
		if !ok {
			t.Fatalf("category %q missing from merged set", c)
		}
		for i := range fg.Cells {
			if math.Abs(fg.Cells[i]-mg.Cells[i]) > 1e-12 {
				t.Fatalf("category %q cell %d differs: %g vs %g", c, i, fg.Cells[i], mg.Cells[i])
			}
		}
	}
}

func TestMergeResolutionMismatch(t *testing.T) {
	a := newTestAggregator(t, Options{Rows: 2, Cols: 2})
	b := newTestAggregator(t, Options{Rows: 4, Cols: 4})
	if err := a.Merge(b); !errors.Is(err, ErrResolutionMismatch) {
		t.Errorf("Merge error = %v, want ErrResolutionMismatch", err)
	}
}

func TestRunPolicySkip(t *testing.T) {
	records := []BoxRecord{
		box("title", 0, 0, 50, 50, 100, 100),
		box("title", 60, 10, 40, 20, 100, 100), // inverted, malformed
		box("title", 0, 0, 50, 50, 100, 100),
	}
	set := runCorpus(t, Options{Rows: 2, Cols: 2, Policy: PolicySkip}, records)

	if set.SampleCount != 2 {
		t.Errorf("sample count = %d, want 2", set.SampleCount)
	}
	if set.SkippedCount != 1 {
		t.Errorf("skipped count = %d, want 1", set.SkippedCount)
	}
}

func TestRunPolicyFailFast(t *testing.T) {
	records := []BoxRecord{
		box("title", 0, 0, 50, 50, 100, 100),
		box("title", 60, 10, 40, 20, 100, 100),
	}
	agg := newTestAggregator(t, Options{Rows: 2, Cols: 2, Policy: PolicyFailFast})
	_, err := Run(context.Background(), NewSliceSource(records), agg)
	if !errors.Is(err, ErrInvalidBox) {
		t.Errorf("Run error = %v, want ErrInvalidBox", err)
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := newTestAggregator(t, Options{Rows: 2, Cols: 2, Categories: []Category{"title"}})
	_, err := Run(ctx, NewSliceSource([]BoxRecord{box("title", 0, 0, 50, 50, 100, 100)}), agg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

// errSource fails after yielding a fixed number of records.
type errSource struct {
	remaining int
}

func (s *errSource) Next() (BoxRecord, error) {
	if s.remaining == 0 {
		return BoxRecord{}, errors.New("storage unavailable")
	}
	s.remaining--
	return box("title", 0, 0, 50, 50, 100, 100), nil
}

func TestRunSourceErrorPropagates(t *testing.T) {
	agg := newTestAggregator(t, Options{Rows: 2, Cols: 2})
	_, err := Run(context.Background(), &errSource{remaining: 2}, agg)
	if err == nil || errors.Is(err, io.EOF) {
		t.Errorf("Run should surface source errors, got %v", err)
	}
}

func TestRunLayoutCount(t *testing.T) {
	records := []BoxRecord{
		{Category: "title", LayoutID: "a", X0: 0, Y0: 0, X1: 10, Y1: 10, CanvasW: 100, CanvasH: 100},
		{Category: "title", LayoutID: "a", X0: 0, Y0: 0, X1: 10, Y1: 10, CanvasW: 100, CanvasH: 100},
		{Category: "time", LayoutID: "b", X0: 0, Y0: 0, X1: 10, Y1: 10, CanvasW: 100, CanvasH: 100},
	}
	set := runCorpus(t, Options{Rows: 2, Cols: 2}, records)
	if set.LayoutCount != 2 {
		t.Errorf("layout count = %d, want 2", set.LayoutCount)
	}
}

func TestNewAggregatorRejectsBadOptions(t *testing.T) {
	if _, err := NewAggregator(Options{Rows: 0, Cols: 5}); err == nil {
		t.Error("zero rows should be rejected")
	}
	if _, err := NewAggregator(Options{Rows: 2, Cols: 2, Policy: "explode"}); err == nil {
		t.Error("unknown policy should be rejected")
	}
	if _, err := NewAggregator(Options{Rows: 2, Cols: 2, Categories: []Category{"a", "a"}}); err == nil {
		t.Error("duplicate categories should be rejected")
	}
}
