package heat

import (
	"fmt"
)

// =============================================================================
// Score Combination
// =============================================================================

// Combination selects how per-element scores fold into the layout score.
type Combination string

const (
	// CombinationMean averages all element scores equally. Default.
	CombinationMean Combination = "mean"

	// CombinationMin scores the layout by its worst-placed element.
	CombinationMin Combination = "min"

	// CombinationWeighted averages element scores with per-category weights.
	CombinationWeighted Combination = "weighted"
)

// ValidateCombination checks that a combination value is recognized.
func ValidateCombination(c Combination) error {
	switch c {
	case CombinationMean, CombinationMin, CombinationWeighted:
		return nil
	}
	return fmt.Errorf("invalid score combination: %q (must be one of: mean, min, weighted)", c)
}

// =============================================================================
// Score Types
// =============================================================================

// ElementScore is the placement score of a single layout element.
type ElementScore struct {
	// Category of the scored element.
	Category Category `json:"category"`

	// Score is the coverage-weighted average of the category's normalized
	// grid values over the cells the element overlaps, in [0,1].
	Score float64 `json:"score"`

	// Neutral marks an element whose category was never observed in the
	// corpus. Its score is the defined neutral value 0; an unseen category
	// is a weak signal, not an error.
	Neutral bool `json:"neutral,omitempty"`
}

// LayoutScore is the plausibility measure for a whole candidate layout.
// It ranks layouts relative to one another; it is not a probability.
type LayoutScore struct {
	// Overall is the combined layout score per the configured combination.
	Overall float64 `json:"overall"`

	// Elements holds per-element scores in layout order.
	Elements []ElementScore `json:"elements"`
}

// =============================================================================
// Scorer
// =============================================================================

// ScoreOptions configures a Scorer.
type ScoreOptions struct {
	// Combination folds element scores into the overall score.
	// Defaults to CombinationMean.
	Combination Combination

	// Weights are per-category weights for CombinationWeighted. Categories
	// without an entry default to weight 1. Ignored by other combinations.
	Weights map[Category]float64

	// Rows and Cols, when non-zero, assert the grid resolution the caller
	// expects. A finalized set built at a different resolution is rejected
	// with ErrResolutionMismatch at construction, before any query runs.
	Rows int
	Cols int

	// Epsilon is the degenerate-box threshold for mapping query elements.
	// Zero selects DefaultEpsilon.
	Epsilon float64
}

// Scorer answers placement queries against one finalized [Set]. It holds the
// set read-only and keeps no per-query state, so a single Scorer is safe for
// any number of concurrent Score calls.
type Scorer struct {
	set  *Set
	opts ScoreOptions
}

// NewScorer creates a scorer over a finalized set. The set is validated for
// shape consistency, and against opts.Rows/Cols when the caller pins an
// expected resolution.
func NewScorer(set *Set, opts ScoreOptions) (*Scorer, error) {
	if set == nil {
		return nil, fmt.Errorf("set must not be nil")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if opts.Combination == "" {
		opts.Combination = CombinationMean
	}
	if err := ValidateCombination(opts.Combination); err != nil {
		return nil, err
	}
	if (opts.Rows != 0 || opts.Cols != 0) && (opts.Rows != set.Rows || opts.Cols != set.Cols) {
		return nil, fmt.Errorf("%w: scorer expects %dx%d, set is %dx%d",
			ErrResolutionMismatch, opts.Rows, opts.Cols, set.Rows, set.Cols)
	}
	return &Scorer{set: set, opts: opts}, nil
}

// Set returns the finalized set this scorer queries.
func (s *Scorer) Set() *Set { return s.set }

// Score computes per-element placement scores for a candidate layout and
// combines them into an overall score. Elements map onto the set's grid via
// the same areal-coverage weighting used during aggregation, so a box is
// judged by exactly the cells it would have contributed to.
//
// Malformed elements fail with an error wrapping [ErrInvalidBox]; elements
// of a never-observed category receive the neutral score 0. An empty layout
// scores 0 overall with no elements.
func (s *Scorer) Score(layout []BoxRecord) (LayoutScore, error) {
	out := LayoutScore{Elements: make([]ElementScore, 0, len(layout))}

	for _, b := range layout {
		es, err := s.scoreElement(b)
		if err != nil {
			return LayoutScore{}, err
		}
		out.Elements = append(out.Elements, es)
	}

	out.Overall = s.combine(out.Elements)
	return out, nil
}

func (s *Scorer) scoreElement(b BoxRecord) (ElementScore, error) {
	weights, err := mapBox(b, s.set.Rows, s.set.Cols, s.opts.Epsilon)
	if err != nil {
		return ElementScore{}, err
	}

	grid, ok := s.set.Grid(b.Category)
	if !ok {
		return ElementScore{Category: b.Category, Neutral: true}, nil
	}

	var value, total float64
	for _, cw := range weights {
		value += cw.Weight * grid.At(cw.Row, cw.Col)
		total += cw.Weight
	}
	if total == 0 {
		return ElementScore{Category: b.Category}, nil
	}
	return ElementScore{Category: b.Category, Score: value / total}, nil
}

func (s *Scorer) combine(elements []ElementScore) float64 {
	if len(elements) == 0 {
		return 0
	}

	switch s.opts.Combination {
	case CombinationMin:
		min := elements[0].Score
		for _, e := range elements[1:] {
			if e.Score < min {
				min = e.Score
			}
		}
		return min

	case CombinationWeighted:
		var sum, total float64
		for _, e := range elements {
			w := 1.0
			if cw, ok := s.opts.Weights[e.Category]; ok {
				w = cw
			}
			sum += w * e.Score
			total += w
		}
		if total == 0 {
			return 0
		}
		return sum / total

	default: // CombinationMean
		var sum float64
		for _, e := range elements {
			sum += e.Score
		}
		return sum / float64(len(elements))
	}
}
