package random

import (
	"math"
	"math/rand/v2"
)

// Chunk size for the Poisson range reduction. exp(600) is still comfortably
// inside float64.
const POISSON_STEP = 600

/*
All the randomness in a run comes out of one of these. Everything that wants
reproducible results shares a Source and calls it in a fixed order, so the
order of calls is part of what makes a run repeatable. Independent runs (or
workers) each want their own Source with their own seed.
*/
type Source struct {
	rng  *rand.Rand
	seed int64
}

func New(seed int64) *Source {
	s := uint64(seed)
	return &Source{
		rng:  rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

func (s *Source) Seed() int64 {
	return s.seed
}

/*
Return an int in [0, limit) with no modulo bias: any raw draw that lands in
the partial block at the top of the generator's range gets thrown away and
we draw again.
*/
func (s *Source) Uniform(limit int) int {
	if limit <= 0 {
		panic("random: Uniform limit must be positive")
	}
	l := uint64(limit)
	zone := (math.MaxUint64 / l) * l

	for {
		r := s.rng.Uint64()
		if r < zone {
			return int(r % l)
		}
	}
}

// A uniform float in [0, 1)
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

/*
Draw from a Poisson distribution with the given mean by multiplying uniforms
together until the product drops below exp(-mean). For big means exp(-mean)
underflows, so instead we start at 1 and scale the running product back up by
exp(chunk) whenever it falls below 1, POISSON_STEP at a time, until the whole
mean has been used up.
*/
func (s *Source) Poisson(mean float64) int {
	if mean < 0 || math.IsNaN(mean) {
		panic("random: Poisson mean must be non-negative")
	}
	if mean == 0 {
		return 0
	}

	remainder := mean
	n := 0
	p := 1.0

	for {
		p *= s.rng.Float64()
		n++

		for p < 1 && remainder > 0 {
			chunk := math.Min(remainder, POISSON_STEP)
			p *= math.Exp(chunk)
			remainder -= chunk
		}

		if p <= 1 {
			break
		}
	}
	return n - 1
}
