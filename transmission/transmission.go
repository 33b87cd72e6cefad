package transmission

import (
	"errors"
	"fmt"
	"slices"

	"bottlesim/genomes"
	"bottlesim/random"
	"bottlesim/sample"
	"bottlesim/utils"
)

var (
	ErrComboSize  = errors.New("combination size must be at least 1")
	ErrNoCombos   = errors.New("no combination sizes given")
	ErrIterations = errors.New("iterations must be at least 1")
)

/*
Compares a sample from the source population with one from the recipient,
one (source genome, recipient genome) pair at a time. Sites both genomes
carry are the ancestral branch; sites only one of them carries are that
genome's own branch.
*/
type Analyzer struct {
	src, rec *sample.Sample
	rs       *random.Source

	// Presence sets for every sampled genome, built once
	srcSets []map[int]bool
	recSets []map[int]bool
}

func NewAnalyzer(src, rec *sample.Sample, rs *random.Source) *Analyzer {
	return &Analyzer{
		src:     src,
		rec:     rec,
		rs:      rs,
		srcSets: toSets(src.Genomes()),
		recSets: toSets(rec.Genomes()),
	}
}

func toSets(g []genomes.Genome) []map[int]bool {
	ret := make([]map[int]bool, len(g))
	for i, genome := range g {
		ret[i] = genome.Set()
	}
	return ret
}

func (a *Analyzer) Source() *sample.Sample {
	return a.src
}

func (a *Analyzer) Recipient() *sample.Sample {
	return a.rec
}

/*
Of the sites s and r share, how many more are segregating in the source
sample than in the recipient one. A bottleneck should have thrown away some
of the shared diversity on the recipient side, so this tends to be positive.
*/
func (a *Analyzer) tier1(s, r map[int]bool) (int, error) {
	ancestral := utils.Intersection(s, r)

	srcSeg, err := a.src.CountSegregating(ancestral)
	if err != nil {
		return 0, fmt.Errorf("source sample: %w", err)
	}
	recSeg, err := a.rec.CountSegregating(ancestral)
	if err != nil {
		return 0, fmt.Errorf("recipient sample: %w", err)
	}
	return srcSeg - recSeg, nil
}

/*
True if something on the source genome's own branch is segregating in the
source sample while nothing on the recipient genome's own branch is
segregating in the recipient sample.
*/
func (a *Analyzer) tier2(s, r map[int]bool) (bool, error) {
	srcBranch := utils.Difference(s, r)
	recBranch := utils.Difference(r, s)

	srcSeg, err := a.src.CountSegregating(srcBranch)
	if err != nil {
		return false, fmt.Errorf("source sample: %w", err)
	}
	if srcSeg == 0 {
		return false, nil
	}

	recSeg, err := a.rec.CountSegregating(recBranch)
	if err != nil {
		return false, fmt.Errorf("recipient sample: %w", err)
	}
	return recSeg == 0, nil
}

func (a *Analyzer) Tier1SegDiff(s, r genomes.Genome) (int, error) {
	return a.tier1(s.Set(), r.Set())
}

func (a *Analyzer) Tier2(s, r genomes.Genome) (bool, error) {
	return a.tier2(s.Set(), r.Set())
}

// What one trial found
type trialResult struct {
	segDiff      int // summed over the pairs
	tier2Hits    int
	clumpCorrect int
	clumpReverse int
}

/*
One trial: comboSize random pairs, each genome picked uniformly with
replacement from its own sample. Only the pair picks draw from the Source.
*/
func (a *Analyzer) trial(comboSize, numBins int) (trialResult, error) {
	var ret trialResult

	for i := 0; i < comboSize; i++ {
		s := a.srcSets[a.rs.Uniform(len(a.srcSets))]
		r := a.recSets[a.rs.Uniform(len(a.recSets))]

		diff, err := a.tier1(s, r)
		if err != nil {
			return trialResult{}, err
		}
		ret.segDiff += diff

		hit, err := a.tier2(s, r)
		if err != nil {
			return trialResult{}, err
		}
		if hit {
			ret.tier2Hits++
		}

		correct, reverse := a.clumpiness(s, r, numBins)
		if correct {
			ret.clumpCorrect++
		}
		if reverse {
			ret.clumpReverse++
		}
	}
	return ret, nil
}

// Sorted, duplicates removed, and all at least 1
func normalizeCombos(comboSizes []int) ([]int, error) {
	if len(comboSizes) == 0 {
		return nil, ErrNoCombos
	}
	ret := slices.Clone(comboSizes)
	slices.Sort(ret)
	ret = slices.Compact(ret)
	if ret[0] < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrComboSize, ret[0])
	}
	return ret, nil
}

/*
Run iterations trials for every combination size (smallest first) and
collect the fraction of trials that detected the transmission each way.
Clumpiness is reported on its own and doesn't feed the combined fraction.
header.NumBins of 0 means DEFAULT_BINS.
*/
func (a *Analyzer) Analyze(header Header,
	comboSizes []int, iterations int) (*Stats, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("analyze: %w, got %d", ErrIterations, iterations)
	}
	combos, err := normalizeCombos(comboSizes)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	if header.NumBins == 0 {
		header.NumBins = DEFAULT_BINS
	}
	if header.NumBins < 1 {
		return nil, fmt.Errorf("analyze: %w, got %d", ErrBins, header.NumBins)
	}

	ret := &Stats{
		Header:          header,
		Iterations:      iterations,
		Combos:          make([]ComboStats, 0, len(combos)),
		SourceSample:    a.src.SiteLists(),
		RecipientSample: a.rec.SiteLists(),
	}
	ret.SampleSize = a.src.Size()

	for _, c := range combos {
		cs := ComboStats{
			Size:     c,
			SegDiffs: make([]int, iterations),
		}
		var tier1, tier2, combined, clumpy int

		for i := 0; i < iterations; i++ {
			tr, err := a.trial(c, header.NumBins)
			if err != nil {
				return nil, fmt.Errorf("analyze: combo size %d trial %d: %w",
					c, i, err)
			}
			cs.SegDiffs[i] = tr.segDiff

			t1 := tr.segDiff > 0
			t2 := tr.tier2Hits > 0
			if t1 {
				tier1++
			}
			if t2 {
				tier2++
			}
			if t1 || t2 {
				combined++
			}
			if tr.clumpCorrect > tr.clumpReverse {
				clumpy++
			}
		}

		n := float64(iterations)
		cs.Tier1Fraction = float64(tier1) / n
		cs.Tier2Fraction = float64(tier2) / n
		cs.CombinedFraction = float64(combined) / n
		cs.ClumpinessFraction = float64(clumpy) / n
		ret.Combos = append(ret.Combos, cs)
	}
	return ret, nil
}
