package heat

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Set is the finalized, immutable result of one aggregation run: one
// max-normalized grid per category plus corpus metadata. It is the durable
// artifact consumed by scoring, so the format is self-describing: grid
// resolution, category enumeration, row-major cell values, and build
// provenance all travel together.
//
// A Set is created once and never mutated; hand the same instance to any
// number of concurrent scorers without locking.
type Set struct {
	// ID uniquely identifies the aggregation run that produced this set.
	ID string `json:"id" bson:"_id"`

	// Rows and Cols are the grid resolution every contained grid shares.
	Rows int `json:"rows" bson:"rows"`
	Cols int `json:"cols" bson:"cols"`

	// Categories enumerates the contained categories in declaration-then-
	// first-seen order. Every declared category is present even when its
	// grid is all-zero.
	Categories []Category `json:"categories" bson:"categories"`

	// Grids holds the normalized density grid per category. Maximum cell is
	// 1.0, or the whole grid is zero when the category had no samples.
	Grids map[Category]Grid `json:"grids" bson:"grids"`

	// SampleCount is the total number of records absorbed across all
	// categories; LayoutCount the number of distinct source layouts that
	// contributed; SkippedCount the malformed records dropped under the
	// skip policy.
	SampleCount  int `json:"sample_count" bson:"sample_count"`
	LayoutCount  int `json:"layout_count" bson:"layout_count"`
	SkippedCount int `json:"skipped_count,omitempty" bson:"skipped_count,omitempty"`

	// Sigma records the Gaussian smoothing applied before normalization,
	// zero when smoothing was disabled.
	Sigma float64 `json:"sigma,omitempty" bson:"sigma,omitempty"`

	// BuiltAt is the UTC build timestamp.
	BuiltAt time.Time `json:"built_at" bson:"built_at"`
}

// Grid returns the normalized grid for a category and whether the category
// exists in the set.
func (s *Set) Grid(c Category) (Grid, bool) {
	g, ok := s.Grids[c]
	return g, ok
}

// Validate checks internal consistency after deserialization: every listed
// category has a grid, and every grid matches the set resolution. A shape
// violation reports [ErrResolutionMismatch] so loaders can refuse the set
// before any query runs against it.
func (s *Set) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: set resolution %dx%d must be positive", ErrResolutionMismatch, s.Rows, s.Cols)
	}
	if len(s.Categories) != len(s.Grids) {
		return fmt.Errorf("set lists %d categories but holds %d grids", len(s.Categories), len(s.Grids))
	}
	for _, c := range s.Categories {
		g, ok := s.Grids[c]
		if !ok {
			return fmt.Errorf("set is missing grid for category %q", c)
		}
		if g.Rows != s.Rows || g.Cols != s.Cols || len(g.Cells) != s.Rows*s.Cols {
			return fmt.Errorf("%w: grid for %q is %dx%d (%d cells), set is %dx%d",
				ErrResolutionMismatch, c, g.Rows, g.Cols, len(g.Cells), s.Rows, s.Cols)
		}
	}
	return nil
}

// Region is one grid cell with its normalized density value.
type Region struct {
	Row   int     `json:"row" bson:"row"`
	Col   int     `json:"col" bson:"col"`
	Value float64 `json:"value" bson:"value"`
}

// TopRegions returns the k highest-density cells of a category's grid in
// descending value order, used to suggest placement regions. Ties break in
// row-major order so results are deterministic. k larger than the cell count
// is clamped; a category absent from the set fails with
// [ErrUnknownCategory] so the caller can distinguish "no data" from an
// empty answer.
func (s *Set) TopRegions(c Category, k int) ([]Region, error) {
	g, ok := s.Grids[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if k > len(g.Cells) {
		k = len(g.Cells)
	}

	regions := make([]Region, len(g.Cells))
	for i, v := range g.Cells {
		regions[i] = Region{Row: i / g.Cols, Col: i % g.Cols, Value: v}
	}
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Value > regions[j].Value
	})
	return regions[:k], nil
}

// MarshalSet serializes a set to JSON.
func MarshalSet(s *Set) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSet deserializes JSON bytes to a Set and validates its shape.
func UnmarshalSet(data []byte) (*Set, error) {
	var s Set
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
