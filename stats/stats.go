package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary of a set of integer trial outcomes (e.g. the seg diff sums)
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func toFloats(values []int) []float64 {
	ret := make([]float64, len(values))
	for i, v := range values {
		ret[i] = float64(v)
	}
	return ret
}

func Summarize(values []int) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	f := toFloats(values)
	ret := Summary{
		N:   len(f),
		Min: floats.Min(f),
		Max: floats.Max(f),
	}

	// StdDev is the unbiased one, which isn't defined for a single value
	if len(f) == 1 {
		ret.Mean = f[0]
		return ret
	}
	ret.Mean, ret.StdDev = stat.MeanStdDev(f, nil)
	return ret
}

// Zero for an empty slice rather than NaN
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func (s Summary) ToString() string {
	return fmt.Sprintf("n=%d mean=%.4g sd=%.4g min=%g max=%g",
		s.N, s.Mean, s.StdDev, s.Min, s.Max)
}
