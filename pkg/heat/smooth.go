package heat

import "math"

// smooth applies a separable Gaussian blur with the given sigma (in cells)
// to a copy of the grid. The kernel is renormalized at the borders so the
// blur neither invents nor loses mass near the edges. Sample count carries
// over unchanged.
func smooth(g Grid, sigma float64) Grid {
	if sigma <= 0 {
		return g.Clone()
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	// Horizontal pass.
	tmp := NewGrid(g.Rows, g.Cols)
	tmp.Samples = g.Samples
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			var sum, norm float64
			for k := -radius; k <= radius; k++ {
				cc := c + k
				if cc < 0 || cc >= g.Cols {
					continue
				}
				w := kernel[k+radius]
				sum += w * g.At(r, cc)
				norm += w
			}
			tmp.Cells[r*tmp.Cols+c] = sum / norm
		}
	}

	// Vertical pass.
	out := NewGrid(g.Rows, g.Cols)
	out.Samples = g.Samples
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			var sum, norm float64
			for k := -radius; k <= radius; k++ {
				rr := r + k
				if rr < 0 || rr >= g.Rows {
					continue
				}
				w := kernel[k+radius]
				sum += w * tmp.At(rr, c)
				norm += w
			}
			out.Cells[r*out.Cols+c] = sum / norm
		}
	}
	return out
}

// gaussianKernel builds a normalized 1D kernel with radius 3*sigma, the
// conventional truncation point.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	var total float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}
