package stats

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []int{4}, Summary{N: 1, Mean: 4, Min: 4, Max: 4}},
		{"several", []int{-2, 0, 2, 4}, Summary{N: 4, Mean: 1,
			StdDev: math.Sqrt(20.0 / 3), Min: -2, Max: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			if got.N != tt.want.N || got.Min != tt.want.Min ||
				got.Max != tt.want.Max {
				t.Fatalf("Summarize() = %+v, want %+v", got, tt.want)
			}
			if math.Abs(got.Mean-tt.want.Mean) > 1e-9 ||
				math.Abs(got.StdDev-tt.want.StdDev) > 1e-9 {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %g, want 0", got)
	}
	if got := Mean([]float64{0.25, 0.75}); got != 0.5 {
		t.Errorf("Mean() = %g, want 0.5", got)
	}
}
