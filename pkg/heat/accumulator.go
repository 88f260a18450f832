package heat

import "fmt"

// Accumulator owns the running density grid for a single category. One
// accumulator instance exclusively owns one grid; there is no shared mutable
// state between categories, so accumulators for different categories may run
// on independent shards.
//
// Accumulation is append-only: absorbing a record never decreases any cell,
// which is what makes single-pass streaming aggregation and cell-wise shard
// merging sound.
type Accumulator struct {
	category Category
	grid     Grid
	epsilon  float64
}

// NewAccumulator creates an accumulator for one category at the given grid
// resolution. A non-positive epsilon falls back to [DefaultEpsilon].
func NewAccumulator(category Category, rows, cols int, epsilon float64) (*Accumulator, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid resolution %dx%d must be positive", rows, cols)
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Accumulator{
		category: category,
		grid:     NewGrid(rows, cols),
		epsilon:  epsilon,
	}, nil
}

// Category returns the category this accumulator aggregates.
func (a *Accumulator) Category() Category { return a.category }

// Samples returns the number of records absorbed so far.
func (a *Accumulator) Samples() int { return a.grid.Samples }

// Absorb maps the box onto the grid and adds its areal weights to the
// covered cells. A malformed box leaves the grid untouched and returns an
// error wrapping [ErrInvalidBox].
func (a *Accumulator) Absorb(b BoxRecord) error {
	if b.Category != a.category {
		return fmt.Errorf("accumulator for %q cannot absorb %q record", a.category, b.Category)
	}
	weights, err := mapBox(b, a.grid.Rows, a.grid.Cols, a.epsilon)
	if err != nil {
		return err
	}
	for _, cw := range weights {
		a.grid.add(cw.Row, cw.Col, cw.Weight)
	}
	a.grid.Samples++
	return nil
}

// merge adds another accumulator's cells and sample count into this one.
// Both sides must share a resolution.
func (a *Accumulator) merge(other *Accumulator) error {
	if !a.grid.sameResolution(other.grid) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrResolutionMismatch,
			a.grid.Rows, a.grid.Cols, other.grid.Rows, other.grid.Cols)
	}
	for i, v := range other.grid.Cells {
		a.grid.Cells[i] += v
	}
	a.grid.Samples += other.grid.Samples
	return nil
}

// Finalize returns a copy of the accumulated grid. The accumulator remains
// usable; finalizing is a snapshot, not a terminal operation.
func (a *Accumulator) Finalize() Grid {
	return a.grid.Clone()
}
