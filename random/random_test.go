package random

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

/*
Pearson's chi-square for counts against a uniform expectation, and its
p-value with len(observed)-1 degrees of freedom.
*/
func chiSquare(observed []int) (float64, float64) {
	if len(observed) < 2 {
		return 0, 1
	}

	obs := make([]float64, len(observed))
	var total float64
	for i, o := range observed {
		obs[i] = float64(o)
		total += obs[i]
	}
	if total == 0 {
		return 0, 1
	}

	expected := make([]float64, len(obs))
	for i := range expected {
		expected[i] = total / float64(len(obs))
	}

	chi2 := stat.ChiSquare(obs, expected)
	p := distuv.ChiSquared{K: float64(len(obs) - 1)}.Survival(chi2)
	if math.IsNaN(p) {
		p = 0
	}
	return chi2, p
}

func TestChiSquareHelper(t *testing.T) {
	chi2, p := chiSquare([]int{100, 100, 100, 100})
	if chi2 != 0 || p < 0.99 {
		t.Errorf("chiSquare(flat) = %g, %g; want 0, ~1", chi2, p)
	}
	chi2, p = chiSquare([]int{400, 0, 0, 0})
	if chi2 < 100 || p > 1e-6 {
		t.Errorf("chiSquare(skewed) = %g, %g; want large, ~0", chi2, p)
	}
	if _, p := chiSquare([]int{7}); p != 1 {
		t.Errorf("chiSquare(single) p = %g, want 1", p)
	}
}

func TestUniformRange(t *testing.T) {
	s := New(1)
	for _, limit := range []int{1, 2, 7, 10, 1000} {
		for i := 0; i < 10000; i++ {
			got := s.Uniform(limit)
			if got < 0 || got >= limit {
				t.Fatalf("Uniform(%d) = %d, out of range", limit, got)
			}
		}
	}
}

func TestUniformLimitOne(t *testing.T) {
	s := New(99)
	for i := 0; i < 1000; i++ {
		if got := s.Uniform(1); got != 0 {
			t.Fatalf("Uniform(1) = %d, want 0", got)
		}
	}
}

func TestUniformPanicsOnBadLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Uniform(%d) did not panic", limit)
				}
			}()
			New(1).Uniform(limit)
		}()
	}
}

func TestUniformChiSquare(t *testing.T) {
	s := New(12345)
	const limit = 10
	counts := make([]int, limit)
	for i := 0; i < 100000; i++ {
		counts[s.Uniform(limit)]++
	}

	// With a fixed seed this is deterministic, so a generous threshold is
	// just guarding against a systematic bias.
	chi2, p := chiSquare(counts)
	if p < 0.001 {
		t.Errorf("counts %v not uniform: chi2=%g p=%g", counts, chi2, p)
	}

	// Low values mustn't be favoured
	low := counts[0] + counts[1] + counts[2] + counts[3] + counts[4]
	if math.Abs(float64(low)-50000) > 1500 {
		t.Errorf("low half got %d of 100000 draws", low)
	}
}

func TestPoissonZeroMean(t *testing.T) {
	s := New(3)
	for i := 0; i < 100; i++ {
		if got := s.Poisson(0); got != 0 {
			t.Fatalf("Poisson(0) = %d, want 0", got)
		}
	}
}

func TestPoissonMean(t *testing.T) {
	tests := []struct {
		mean  float64
		draws int
	}{
		{0.5, 20000},
		{10, 20000},
		{1000, 2000},
		{250000, 20},
	}

	s := New(2024)
	for _, tt := range tests {
		var sum float64
		for i := 0; i < tt.draws; i++ {
			n := s.Poisson(tt.mean)
			if n < 0 {
				t.Fatalf("Poisson(%g) = %d, negative", tt.mean, n)
			}
			sum += float64(n)
		}
		got := sum / float64(tt.draws)

		// Standard error of the mean is sqrt(mean/draws); allow 5 of them
		tolerance := 5 * math.Sqrt(tt.mean/float64(tt.draws))
		if math.Abs(got-tt.mean) > tolerance {
			t.Errorf("Poisson(%g) mean over %d draws = %g, want within %g",
				tt.mean, tt.draws, got, tolerance)
		}
	}
}

func TestSameSeedSameStream(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 1000; i++ {
		if i%3 == 0 {
			if x, y := a.Poisson(50), b.Poisson(50); x != y {
				t.Fatalf("draw %d: Poisson differs %d vs %d", i, x, y)
			}
			continue
		}
		if x, y := a.Uniform(1000), b.Uniform(1000); x != y {
			t.Fatalf("draw %d: Uniform differs %d vs %d", i, x, y)
		}
	}

	if a.Seed() != 42 {
		t.Errorf("Seed() = %d, want 42", a.Seed())
	}
}
