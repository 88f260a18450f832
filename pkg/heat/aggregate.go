package heat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/posterlab/heatgrid/pkg/observability"
)

// =============================================================================
// Malformed-Record Policy
// =============================================================================

// Policy controls how a streaming run reacts to malformed records.
type Policy string

const (
	// PolicySkip drops malformed records, counts them, and continues.
	// This is the default.
	PolicySkip Policy = "skip"

	// PolicyFailFast aborts the run on the first malformed record.
	PolicyFailFast Policy = "fail_fast"
)

// ValidatePolicy checks that a policy value is recognized.
func ValidatePolicy(p Policy) error {
	switch p {
	case PolicySkip, PolicyFailFast:
		return nil
	}
	return fmt.Errorf("invalid malformed-record policy: %q (must be one of: skip, fail_fast)", p)
}

// =============================================================================
// Source - Streaming Corpus Interface
// =============================================================================

// Source produces BoxRecords one at a time. Implementations are typically
// backed by annotation-export decoders; the engine treats the corpus as an
// opaque lazy sequence so it never has to be resident in memory.
//
// Next returns io.EOF after the final record. Any other error aborts the run
// and is reported upward unchanged.
type Source interface {
	Next() (BoxRecord, error)
}

// SliceSource adapts an in-memory slice to the Source interface.
// Useful for tests and for scoring paths that already hold a layout.
type SliceSource struct {
	records []BoxRecord
	pos     int
}

// NewSliceSource creates a Source over the given records.
func NewSliceSource(records []BoxRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next() (BoxRecord, error) {
	if s.pos >= len(s.records) {
		return BoxRecord{}, io.EOF
	}
	r := s.records[s.pos]
	s.pos++
	return r, nil
}

// =============================================================================
// Options - Aggregation Configuration
// =============================================================================

// Options configures an aggregation run.
type Options struct {
	// Rows and Cols fix the grid resolution for the lifetime of the run.
	// Re-running with a different resolution starts from scratch; grids of
	// different resolutions are never merged.
	Rows int
	Cols int

	// Categories declares the category set up front. Declared categories are
	// always present in the finalized set, as all-zero grids if no record of
	// that category was seen. Categories absent from this list are still
	// accumulated when encountered (lazy creation).
	Categories []Category

	// Policy selects skip or fail_fast handling of malformed records.
	// Defaults to PolicySkip.
	Policy Policy

	// Sigma is the Gaussian smoothing radius in grid cells, applied to each
	// accumulated grid before normalization. Zero disables smoothing.
	Sigma float64

	// Epsilon is the degenerate-box area threshold passed to the mapper.
	// Zero selects DefaultEpsilon.
	Epsilon float64

	// Logger receives per-run progress. Defaults to a discarding logger.
	Logger *log.Logger
}

func (o *Options) validate() error {
	if o.Rows <= 0 || o.Cols <= 0 {
		return fmt.Errorf("grid resolution %dx%d must be positive", o.Rows, o.Cols)
	}
	if o.Policy == "" {
		o.Policy = PolicySkip
	}
	if err := ValidatePolicy(o.Policy); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return nil
}

// =============================================================================
// Aggregator - Multi-Category Accumulation
// =============================================================================

// Aggregator orchestrates accumulation across an annotation corpus, owning
// one [Accumulator] per category and the corpus-level counters. It is not
// safe for concurrent use; shard the corpus across independent Aggregators
// and combine them with [Aggregator.Merge] instead.
type Aggregator struct {
	opts    Options
	accs    map[Category]*Accumulator
	order   []Category // declared order, then first-seen order
	layouts map[string]struct{}
	samples int
	skipped int
}

// NewAggregator creates an aggregator with accumulators pre-created for all
// declared categories.
func NewAggregator(opts Options) (*Aggregator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	ag := &Aggregator{
		opts:    opts,
		accs:    make(map[Category]*Accumulator, len(opts.Categories)),
		layouts: make(map[string]struct{}),
	}
	for _, c := range opts.Categories {
		if _, ok := ag.accs[c]; ok {
			return nil, fmt.Errorf("duplicate category %q", c)
		}
		if err := ag.addCategory(c); err != nil {
			return nil, err
		}
	}
	return ag, nil
}

func (ag *Aggregator) addCategory(c Category) error {
	acc, err := NewAccumulator(c, ag.opts.Rows, ag.opts.Cols, ag.opts.Epsilon)
	if err != nil {
		return err
	}
	ag.accs[c] = acc
	ag.order = append(ag.order, c)
	return nil
}

// Absorb routes one record to its category's accumulator, creating the
// accumulator if the category is seen for the first time. Malformed records
// return an error wrapping [ErrInvalidBox] and leave all grids untouched;
// policy handling (skip vs fail_fast) is the driver's job, see [Run].
func (ag *Aggregator) Absorb(b BoxRecord) error {
	acc, ok := ag.accs[b.Category]
	if !ok {
		if err := ag.addCategory(b.Category); err != nil {
			return err
		}
		acc = ag.accs[b.Category]
	}
	if err := acc.Absorb(b); err != nil {
		return err
	}
	ag.samples++
	if b.LayoutID != "" {
		ag.layouts[b.LayoutID] = struct{}{}
	}
	return nil
}

// CountSkipped records one dropped malformed record.
func (ag *Aggregator) CountSkipped() { ag.skipped++ }

// Samples returns the number of records absorbed so far.
func (ag *Aggregator) Samples() int { return ag.samples }

// Merge folds another aggregator's state into this one, cell-wise. Both
// sides must have been created with the same grid resolution. Merging is
// commutative and associative over un-normalized grids, which is what makes
// corpus sharding safe; normalization happens once, in [Aggregator.Finalize].
func (ag *Aggregator) Merge(other *Aggregator) error {
	if ag.opts.Rows != other.opts.Rows || ag.opts.Cols != other.opts.Cols {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrResolutionMismatch,
			ag.opts.Rows, ag.opts.Cols, other.opts.Rows, other.opts.Cols)
	}
	for _, c := range other.order {
		acc, ok := ag.accs[c]
		if !ok {
			if err := ag.addCategory(c); err != nil {
				return err
			}
			acc = ag.accs[c]
		}
		if err := acc.merge(other.accs[c]); err != nil {
			return err
		}
	}
	for id := range other.layouts {
		ag.layouts[id] = struct{}{}
	}
	ag.samples += other.samples
	ag.skipped += other.skipped
	return nil
}

// Finalize snapshots every accumulator, applies optional Gaussian smoothing
// and per-category max-normalization, and returns an immutable [Set].
//
// A run that declared categories but absorbed nothing finalizes successfully
// to all-zero grids. Only a run with no declared categories and no records
// fails, with [ErrEmptyCorpus], because no result shape can be inferred.
// Finalize never mutates accumulator state, so a failed downstream commit
// cannot corrupt the aggregation.
func (ag *Aggregator) Finalize() (*Set, error) {
	if len(ag.order) == 0 {
		return nil, fmt.Errorf("%w: no categories declared and no records absorbed", ErrEmptyCorpus)
	}

	set := &Set{
		ID:           uuid.NewString(),
		Rows:         ag.opts.Rows,
		Cols:         ag.opts.Cols,
		Categories:   append([]Category(nil), ag.order...),
		Grids:        make(map[Category]Grid, len(ag.order)),
		SampleCount:  ag.samples,
		LayoutCount:  len(ag.layouts),
		SkippedCount: ag.skipped,
		Sigma:        ag.opts.Sigma,
		BuiltAt:      time.Now().UTC(),
	}
	for _, c := range ag.order {
		g := ag.accs[c].Finalize()
		if ag.opts.Sigma > 0 {
			g = smooth(g, ag.opts.Sigma)
		}
		set.Grids[c] = g.Normalized()
	}
	return set, nil
}

// =============================================================================
// Run - Streaming Driver
// =============================================================================

// Run drives a single streaming pass over the corpus: it absorbs records
// from src into agg until io.EOF, then finalizes. Identical corpus order and
// resolution produce bit-identical output; records are summed in corpus
// iteration order and nothing else introduces nondeterminism.
//
// Cancellation is cooperative: ctx is checked between record absorptions, so
// a run over a very large corpus can be stopped without waiting for EOF.
// Source errors and malformed records are reported per opts.Policy; no retry
// logic lives here.
func Run(ctx context.Context, src Source, agg *Aggregator) (*Set, error) {
	logger := agg.opts.Logger
	start := time.Now()
	observability.Aggregation().OnRunStart(ctx, agg.opts.Rows, agg.opts.Cols)

	set, err := run(ctx, src, agg)
	observability.Aggregation().OnRunComplete(ctx, agg.samples, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	logger.Debug("aggregation complete",
		"samples", set.SampleCount,
		"layouts", set.LayoutCount,
		"skipped", set.SkippedCount,
		"categories", len(set.Categories),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return set, nil
}

func run(ctx context.Context, src Source, agg *Aggregator) (*Set, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read corpus: %w", err)
		}

		if err := agg.Absorb(rec); err != nil {
			if !errors.Is(err, ErrInvalidBox) || agg.opts.Policy == PolicyFailFast {
				return nil, err
			}
			agg.CountSkipped()
			agg.opts.Logger.Warn("skipping malformed record", "category", rec.Category, "err", err)
		}
		observability.Aggregation().OnRecord(ctx, string(rec.Category))
	}
	return agg.Finalize()
}
