package heat

// Grid is a fixed-resolution 2D array of non-negative density values for one
// category, stored row-major, plus the number of records absorbed into it.
// During accumulation a Grid is exclusively owned by its [Accumulator]; a
// finalized Grid inside a [Set] is read-only and safely shared.
type Grid struct {
	Rows    int       `json:"rows" bson:"rows"`
	Cols    int       `json:"cols" bson:"cols"`
	Cells   []float64 `json:"cells" bson:"cells"` // row-major, length Rows*Cols
	Samples int       `json:"samples" bson:"samples"`
}

// NewGrid creates a zeroed grid of the given resolution.
// It panics if rows or cols is not positive; resolution is validated at the
// configuration boundary before grids are created.
func NewGrid(rows, cols int) Grid {
	if rows <= 0 || cols <= 0 {
		panic("heat: grid resolution must be positive")
	}
	return Grid{
		Rows:  rows,
		Cols:  cols,
		Cells: make([]float64, rows*cols),
	}
}

// At returns the value at (row, col). Bounds are the caller's responsibility;
// out-of-range indices panic like any slice access.
func (g Grid) At(row, col int) float64 {
	return g.Cells[row*g.Cols+col]
}

// add accumulates w into (row, col).
func (g Grid) add(row, col int, w float64) {
	g.Cells[row*g.Cols+col] += w
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := g
	out.Cells = make([]float64, len(g.Cells))
	copy(out.Cells, g.Cells)
	return out
}

// Max returns the largest cell value, or 0 for an empty or all-zero grid.
func (g Grid) Max() float64 {
	var m float64
	for _, v := range g.Cells {
		if v > m {
			m = v
		}
	}
	return m
}

// Normalized returns a copy rescaled so the maximum cell is 1.0. An all-zero
// grid normalizes to an all-zero grid rather than failing, and normalizing an
// already-normalized grid is a no-op.
func (g Grid) Normalized() Grid {
	out := g.Clone()
	m := g.Max()
	if m == 0 {
		return out
	}
	for i, v := range out.Cells {
		out.Cells[i] = v / m
	}
	return out
}

// sameResolution reports whether two grids share a resolution.
func (g Grid) sameResolution(other Grid) bool {
	return g.Rows == other.Rows && g.Cols == other.Cols
}
