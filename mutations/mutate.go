package mutations

import (
	"errors"
	"fmt"
	"math"

	"bottlesim/genomes"
	"bottlesim/random"
)

var ErrOverflow = errors.New("expected mutation count too large")

/*
How many mutations we expect to land on n genomes of the given length in one
generation, rounded to the nearest integer. Fails if that doesn't fit in an
int.
*/
func Expected(rate float64, length, n int) (int, error) {
	mean := math.Round(rate * float64(length) * float64(n))
	if !(mean >= 0 && mean < float64(math.MaxInt)) {
		return 0, fmt.Errorf("%w: rate %g, length %d, %d genomes",
			ErrOverflow, rate, length, n)
	}
	return int(mean), nil
}

/*
Draw the number of mutations for this generation from a Poisson with the
expected mean, then give each one to a genome picked uniformly at random. The
same genome can be picked more than once. Returns how many mutations were
applied.
*/
func Scatter(g []genomes.Genome, rate float64, length int,
	rs *random.Source) (int, error) {
	if len(g) == 0 {
		return 0, nil
	}

	mean, err := Expected(rate, length, len(g))
	if err != nil {
		return 0, err
	}

	num := rs.Poisson(float64(mean))
	for i := 0; i < num; i++ {
		selected := rs.Uniform(len(g))
		g[selected].AddRandomMutation(rs, length)
	}
	return num, nil
}
