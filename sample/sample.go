package sample

import (
	"errors"
	"fmt"
	"slices"

	"bottlesim/genomes"
	"bottlesim/random"
	"bottlesim/utils"
)

var (
	ErrSize   = errors.New("sample size must be at least 1")
	ErrEmpty  = errors.New("nothing to sample from")
	ErrBroken = errors.New("inconsistent SNP table")
)

// Placeholder proportion while the counts are still going up
const UNSET = -1.0

type Snp struct {
	Site       int     `json:"site"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// Present in some but not all of the sample
func (s Snp) Segregating() bool {
	return s.Proportion > 0 && s.Proportion < 1
}

/*
A fixed set of genomes (our own copies) plus the frequency of every site that
turns up in at least one of them. Sites nobody carries aren't in the table at
all. Nothing changes after construction.
*/
type Sample struct {
	genomes []genomes.Genome
	snps    map[int]Snp
}

/*
Draw size genomes from source, uniformly and with replacement, and count up
the SNPs.
*/
func New(source []genomes.Genome, size int, rs *random.Source) (*Sample, error) {
	if size < 1 {
		return nil, fmt.Errorf("sample: %w, got %d", ErrSize, size)
	}
	if len(source) == 0 {
		return nil, fmt.Errorf("sample: %w", ErrEmpty)
	}

	g := make([]genomes.Genome, size)
	for i := range g {
		selected := rs.Uniform(len(source))
		g[i] = source[selected].Copy()
	}
	return build(g), nil
}

// Use exactly these genomes (copied) as the sample
func Of(g []genomes.Genome) (*Sample, error) {
	if len(g) == 0 {
		return nil, fmt.Errorf("sample: %w, got 0", ErrSize)
	}
	c := make([]genomes.Genome, len(g))
	for i, x := range g {
		c[i] = x.Copy()
	}
	return build(c), nil
}

/*
One pass to count how many genomes carry each site, then another to turn the
counts into proportions. A site repeated within one genome only counts once
for that genome, which keeps every proportion inside (0, 1].
*/
func build(g []genomes.Genome) *Sample {
	snps := make(map[int]Snp)

	for _, genome := range g {
		for site := range genome.Set() {
			snp, ok := snps[site]
			if !ok {
				snp = Snp{Site: site, Proportion: UNSET}
			}
			snp.Count++
			snps[site] = snp
		}
	}

	for site, snp := range snps {
		snp.Proportion = float64(snp.Count) / float64(len(g))
		snps[site] = snp
	}

	return &Sample{genomes: g, snps: snps}
}

func (s *Sample) Size() int {
	return len(s.genomes)
}

// Don't modify these
func (s *Sample) Genomes() []genomes.Genome {
	return s.genomes
}

func (s *Sample) Snp(site int) (Snp, bool) {
	snp, ok := s.snps[site]
	return snp, ok
}

// The whole table, sorted by site
func (s *Sample) Snps() []Snp {
	ret := make([]Snp, 0, len(s.snps))
	for _, snp := range s.snps {
		ret = append(ret, snp)
	}
	slices.SortFunc(ret, func(a, b Snp) int {
		return a.Site - b.Site
	})
	return ret
}

/*
Is site segregating in this sample? Absent sites aren't. A stored proportion
outside (0, 1] means the table was built wrong and we don't try to carry on.
*/
func (s *Sample) IsSegregating(site int) (bool, error) {
	snp, ok := s.snps[site]
	if !ok {
		return false, nil
	}
	if snp.Proportion <= 0 || snp.Proportion > 1 || snp.Count == 0 {
		return false, fmt.Errorf("%w: site %d count %d proportion %g",
			ErrBroken, site, snp.Count, snp.Proportion)
	}
	return snp.Segregating(), nil
}

// How many of sites are segregating
func (s *Sample) CountSegregating(sites map[int]bool) (int, error) {
	return utils.CountWhere(sites, s.IsSegregating)
}

// Every sampled genome's site list, for writing out
func (s *Sample) SiteLists() [][]int {
	ret := make([][]int, len(s.genomes))
	for i, g := range s.genomes {
		ret[i] = slices.Clone(g.Sites())
		if ret[i] == nil {
			ret[i] = []int{}
		}
	}
	return ret
}
