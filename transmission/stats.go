package transmission

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bottlesim/stats"
)

// What produced a Stats: the parameters of the run, echoed back
type Header struct {
	RunId                string  `json:"run_id"`
	Repetition           int     `json:"repetition"`
	Seed                 int64   `json:"seed"`
	MutationRate         float64 `json:"mutation_rate"`
	GenomeLength         int     `json:"genome_length"`
	CarryingCapacity     int     `json:"carrying_capacity"`
	SampleSize           int     `json:"sample_size"`
	SourceGenerations    int     `json:"source_generations"`
	RecipientGenerations int     `json:"recipient_generations"`
	Bottleneck           int     `json:"bottleneck"`
	NumBins              int     `json:"num_bins"` // for clumpiness
}

// The results for one combination size
type ComboStats struct {
	Size             int     `json:"combo_size"`
	Tier1Fraction    float64 `json:"tier_1_fraction"`
	Tier2Fraction    float64 `json:"tier_2_fraction"`
	CombinedFraction float64 `json:"combined_fraction"`

	// Trials where more pairs passed the clumpiness test than failed it
	// outright. Not part of CombinedFraction.
	ClumpinessFraction float64 `json:"clumpiness_fraction"`

	SegDiffs []int `json:"seg_diffs"` // one per trial
}

func (c *ComboStats) Summary() stats.Summary {
	return stats.Summarize(c.SegDiffs)
}

/*
Everything one analysis run produces. Combos is ordered by size. The sampled
genomes go along with it so the SNP tables can be rebuilt later.
*/
type Stats struct {
	Header
	Iterations      int          `json:"iterations"`
	Combos          []ComboStats `json:"combos"`
	SourceSample    [][]int      `json:"source_sample,omitempty"`
	RecipientSample [][]int      `json:"recipient_sample,omitempty"`
}

func (s *Stats) Combo(size int) (*ComboStats, bool) {
	for i := range s.Combos {
		if s.Combos[i].Size == size {
			return &s.Combos[i], true
		}
	}
	return nil, false
}

// Base name for the files written for this run, e.g. stats-run-x-srcgen-500-rep-0
func (s *Stats) FileName(kind string) string {
	return fmt.Sprintf("%s-run-%s-srcgen-%d-rep-%d",
		kind, s.RunId, s.SourceGenerations, s.Repetition)
}

func (s *Stats) WriteText(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "run id: %s\n", s.RunId)
	fmt.Fprintf(&sb, "repetition: %d\n", s.Repetition)
	fmt.Fprintf(&sb, "seed: %d\n", s.Seed)
	fmt.Fprintf(&sb, "mutation rate: %g\n", s.MutationRate)
	fmt.Fprintf(&sb, "genome length: %d\n", s.GenomeLength)
	fmt.Fprintf(&sb, "carrying capacity: %d\n", s.CarryingCapacity)
	fmt.Fprintf(&sb, "sample size: %d\n", s.SampleSize)
	fmt.Fprintf(&sb, "source generations: %d\n", s.SourceGenerations)
	fmt.Fprintf(&sb, "recipient generations: %d\n", s.RecipientGenerations)
	fmt.Fprintf(&sb, "bottleneck: %d\n", s.Bottleneck)
	fmt.Fprintf(&sb, "num bins: %d\n", s.NumBins)
	fmt.Fprintf(&sb, "iterations: %d\n", s.Iterations)

	for _, c := range s.Combos {
		sum := c.Summary()
		fmt.Fprintf(&sb, "combo size %d: tier 1 fraction: %g "+
			"tier 2 fraction: %g combined fraction: %g "+
			"clumpiness fraction: %g average ancestral branch diff: %g\n",
			c.Size, c.Tier1Fraction, c.Tier2Fraction,
			c.CombinedFraction, c.ClumpinessFraction, sum.Mean)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// One line per combo size: "size: d,d,d,"
func (s *Stats) WriteSegs(w io.Writer) error {
	for _, c := range s.Combos {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d: ", c.Size)
		for _, d := range c.SegDiffs {
			fmt.Fprintf(&sb, "%d,", d)
		}
		sb.WriteByte('\n')

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stats) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
