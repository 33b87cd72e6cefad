package transmission

import (
	"errors"
	"fmt"
	"math"

	"bottlesim/genomes"
	"bottlesim/sample"
	"bottlesim/utils"
)

// Proportion bins used when the header doesn't say
const DEFAULT_BINS = 10

var ErrBins = errors.New("number of bins must be at least 1")

/*
Count proportions into numBins equal buckets over (0, 1]: bucket i holds
(i/n, (i+1)/n]. A proportion of 0 (the site isn't in that sample at all)
goes in the first bucket.
*/
func binProportions(proportions []float64, numBins int) []int {
	if len(proportions) == 0 || numBins < 1 {
		return []int{}
	}

	ret := make([]int, numBins)
	for _, p := range proportions {
		bin := int(math.Ceil(p*float64(numBins))) - 1
		ret[max(0, min(bin, numBins-1))]++
	}
	return ret
}

/*
1 minus the chance that two different sites drawn from the bins share one.
0 when everything is in one bin (or there's at most one site), approaching 1
as the sites spread out.
*/
func pseudoEntropy(bins []int) float64 {
	var total, same int
	for _, n := range bins {
		total += n
		same += n*n - n
	}
	if len(bins) <= 1 || total < 2 {
		return 0
	}
	return 1 - float64(same)/float64(total*total-total)
}

func proportion(s *sample.Sample, site int) float64 {
	snp, ok := s.Snp(site)
	if !ok {
		return 0
	}
	return snp.Proportion
}

// How spread out the branch's site frequencies are in each sample
func (a *Analyzer) branchEntropies(branch map[int]bool,
	numBins int) (float64, float64) {
	srcProps := make([]float64, 0, len(branch))
	recProps := make([]float64, 0, len(branch))
	for site := range branch {
		srcProps = append(srcProps, proportion(a.src, site))
		recProps = append(recProps, proportion(a.rec, site))
	}
	return pseudoEntropy(binProportions(srcProps, numBins)),
		pseudoEntropy(binProportions(recProps, numBins))
}

/*
The clumpiness test for one pair. The bottleneck should leave the recipient's
site frequencies bunched together, so on both genomes' own branches the
source sample ought to look more spread out than the recipient one. correct
means it does on both branches; reverse means it doesn't on either. A pair
with mixed results is neither.
*/
func (a *Analyzer) clumpiness(s, r map[int]bool, numBins int) (bool, bool) {
	srcOnSrc, recOnSrc := a.branchEntropies(utils.Difference(s, r), numBins)
	srcOnRec, recOnRec := a.branchEntropies(utils.Difference(r, s), numBins)

	correct := srcOnSrc > recOnSrc && srcOnRec > recOnRec
	reverse := srcOnSrc <= recOnSrc && srcOnRec <= recOnRec
	return correct, reverse
}

func (a *Analyzer) Clumpiness(s, r genomes.Genome,
	numBins int) (bool, bool, error) {
	if numBins < 1 {
		return false, false, fmt.Errorf("%w, got %d", ErrBins, numBins)
	}
	correct, reverse := a.clumpiness(s.Set(), r.Set(), numBins)
	return correct, reverse, nil
}
