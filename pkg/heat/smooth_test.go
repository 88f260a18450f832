package heat

import (
	"math"
	"testing"
)

func TestSmoothSpreadsImpulse(t *testing.T) {
	g := NewGrid(9, 9)
	g.add(4, 4, 1)

	s := smooth(g, 1.0)

	if max := s.Max(); s.At(4, 4) != max {
		t.Errorf("impulse center should stay the maximum, center %g max %g", s.At(4, 4), max)
	}
	if s.At(4, 5) <= 0 || s.At(3, 4) <= 0 {
		t.Error("blur should spread mass into neighboring cells")
	}
	if s.At(4, 4) >= 1 {
		t.Errorf("center should lose mass to neighbors, got %g", s.At(4, 4))
	}
	// Symmetry around the center.
	if math.Abs(s.At(4, 3)-s.At(4, 5)) > tolerance || math.Abs(s.At(3, 4)-s.At(5, 4)) > tolerance {
		t.Error("blur of a centered impulse should be symmetric")
	}
}

func TestSmoothZeroSigmaIsIdentity(t *testing.T) {
	g := NewGrid(3, 3)
	g.add(1, 1, 2)
	s := smooth(g, 0)
	for i := range g.Cells {
		if s.Cells[i] != g.Cells[i] {
			t.Errorf("cell %d changed with sigma 0: %g vs %g", i, s.Cells[i], g.Cells[i])
		}
	}
}

func TestSmoothPreservesSamples(t *testing.T) {
	g := NewGrid(4, 4)
	g.Samples = 9
	if s := smooth(g, 1.5); s.Samples != 9 {
		t.Errorf("samples = %d, want 9", s.Samples)
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	for _, sigma := range []float64{0.5, 1.0, 2.5} {
		k := gaussianKernel(sigma)
		var sum float64
		for _, v := range k {
			sum += v
		}
		if math.Abs(sum-1.0) > tolerance {
			t.Errorf("sigma %g kernel sums to %g, want 1.0", sigma, sum)
		}
		if len(k)%2 != 1 {
			t.Errorf("sigma %g kernel length %d should be odd", sigma, len(k))
		}
	}
}

func TestAggregateWithSmoothing(t *testing.T) {
	records := []BoxRecord{box("title", 0, 0, 25, 25, 100, 100)}
	set := runCorpus(t, Options{Rows: 4, Cols: 4, Sigma: 1.0}, records)

	g, _ := set.Grid("title")
	if g.At(0, 0) != 1.0 {
		t.Errorf("hottest cell should normalize to 1.0, got %g", g.At(0, 0))
	}
	if g.At(0, 1) <= 0 || g.At(1, 0) <= 0 {
		t.Error("smoothing should bleed density into adjacent cells")
	}
	if set.Sigma != 1.0 {
		t.Errorf("set should record sigma, got %g", set.Sigma)
	}
}
