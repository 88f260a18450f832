package heat

import (
	"fmt"
	"math"
)

// DefaultEpsilon is the normalized-area threshold below which a box is
// treated as degenerate and snapped to its single nearest cell.
const DefaultEpsilon = 1e-9

// CellWeight is one grid cell touched by a mapped box, with the fraction of
// the box's area that falls inside the cell.
type CellWeight struct {
	Row    int
	Col    int
	Weight float64
}

// MapBox projects a box onto a rows×cols grid laid over the unit square.
//
// The box is normalized by its source canvas size and clipped to [0,1]².
// Every cell the normalized box overlaps receives a weight equal to the
// fraction of the box's (clipped) area inside that cell, so for any box at
// least partially on the canvas the weights sum to 1.0 within floating-point
// tolerance. This areal weighting avoids the discretization bias of a
// nearest-cell vote for boxes that straddle cell boundaries.
//
// A degenerate box (normalized area below [DefaultEpsilon]) contributes to
// exactly its nearest cell with weight 1.0. A malformed box fails with an
// error wrapping [ErrInvalidBox]; it is the caller's policy whether to skip
// or abort.
//
// MapBox is a pure function: no side effects, deterministic for its inputs.
func MapBox(b BoxRecord, rows, cols int) ([]CellWeight, error) {
	return mapBox(b, rows, cols, DefaultEpsilon)
}

func mapBox(b BoxRecord, rows, cols int, epsilon float64) ([]CellWeight, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid resolution %dx%d must be positive", rows, cols)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	// Normalize to the unit square and clip. Validate has already rejected
	// boxes entirely off-canvas, so the clipped rectangle is non-empty in at
	// least one dimension.
	x0 := clamp01(b.X0 / b.CanvasW)
	x1 := clamp01(b.X1 / b.CanvasW)
	y0 := clamp01(b.Y0 / b.CanvasH)
	y1 := clamp01(b.Y1 / b.CanvasH)

	area := (x1 - x0) * (y1 - y0)
	if area < epsilon {
		// Degenerate: snap to the nearest cell of the box center.
		row := cellIndex((y0+y1)/2, rows)
		col := cellIndex((x0+x1)/2, cols)
		return []CellWeight{{Row: row, Col: col, Weight: 1.0}}, nil
	}

	r0 := cellIndex(y0, rows)
	r1 := lastCell(y1, rows)
	c0 := cellIndex(x0, cols)
	c1 := lastCell(x1, cols)

	out := make([]CellWeight, 0, (r1-r0+1)*(c1-c0+1))
	for r := r0; r <= r1; r++ {
		cy0 := float64(r) / float64(rows)
		cy1 := float64(r+1) / float64(rows)
		oy := math.Min(y1, cy1) - math.Max(y0, cy0)
		for c := c0; c <= c1; c++ {
			cx0 := float64(c) / float64(cols)
			cx1 := float64(c+1) / float64(cols)
			ox := math.Min(x1, cx1) - math.Max(x0, cx0)
			if w := ox * oy / area; w > 0 {
				out = append(out, CellWeight{Row: r, Col: c, Weight: w})
			}
		}
	}
	return out, nil
}

// cellIndex maps a coordinate in [0,1] to its cell index, clamped so that
// the 1.0 boundary lands in the last cell.
func cellIndex(v float64, n int) int {
	i := int(v * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// lastCell returns the index of the last cell a half-open span ending at v
// touches: the cell below v unless v sits exactly on a cell boundary.
func lastCell(v float64, n int) int {
	i := int(math.Ceil(v*float64(n))) - 1
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
