package transmission

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"bottlesim/genomes"
	"bottlesim/random"
	"bottlesim/sample"
)

func mustSample(t *testing.T, rows ...[]int) *sample.Sample {
	t.Helper()
	g := make([]genomes.Genome, len(rows))
	for i, r := range rows {
		g[i] = genomes.FromSites(r)
	}
	s, err := sample.Of(g)
	if err != nil {
		t.Fatalf("sample.Of() error = %v", err)
	}
	return s
}

// Source sample has segregating sites 2, 3 and 4; the recipient is clonal.
func clonalRecipient(t *testing.T) (*sample.Sample, *sample.Sample) {
	src := mustSample(t, []int{1, 2, 3}, []int{1, 2}, []int{1, 4})
	rec := mustSample(t, []int{1, 2, 5}, []int{1, 2, 5})
	return src, rec
}

func TestTier1SegDiff(t *testing.T) {
	src, rec := clonalRecipient(t)
	a := NewAnalyzer(src, rec, random.New(1))

	tests := []struct {
		s, r []int
		want int
	}{
		{[]int{1, 2, 3}, []int{1, 2, 5}, 1}, // shared 1 (fixed), 2 (seg in src)
		{[]int{1, 4}, []int{1, 2, 5}, 0},
		{[]int{9}, []int{8}, 0},
		{[]int{2, 2, 3}, []int{2, 3}, 2}, // duplicates only count once
	}
	for _, tt := range tests {
		got, err := a.Tier1SegDiff(genomes.FromSites(tt.s), genomes.FromSites(tt.r))
		if err != nil {
			t.Fatalf("Tier1SegDiff() error = %v", err)
		}
		if got != tt.want {
			t.Errorf("Tier1SegDiff(%v, %v) = %d, want %d", tt.s, tt.r, got, tt.want)
		}
	}

	// Segregating on the recipient side counts against
	rec2 := mustSample(t, []int{1, 2, 5}, []int{1, 6})
	a2 := NewAnalyzer(src, rec2, random.New(1))
	got, err := a2.Tier1SegDiff(genomes.FromSites([]int{1, 2, 3}),
		genomes.FromSites([]int{1, 2, 5}))
	if err != nil || got != 0 {
		t.Errorf("Tier1SegDiff() = %d, %v; want 0, nil", got, err)
	}
}

func TestTier2(t *testing.T) {
	src, rec := clonalRecipient(t)
	rec2 := mustSample(t, []int{1, 2, 5}, []int{1, 6})

	tests := []struct {
		name string
		rec  *sample.Sample
		s, r []int
		want bool
	}{
		{"private source site, fixed recipient branch", rec,
			[]int{1, 2, 3}, []int{1, 2, 5}, true},
		{"no source branch", rec, []int{1, 2}, []int{1, 2, 5}, false},
		{"source branch fixed in source", rec, []int{1}, []int{2}, false},
		{"recipient branch segregating", rec2,
			[]int{1, 2, 3}, []int{1, 2, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(src, tt.rec, random.New(1))
			got, err := a.Tier2(genomes.FromSites(tt.s), genomes.FromSites(tt.r))
			if err != nil {
				t.Fatalf("Tier2() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Tier2(%v, %v) = %v, want %v", tt.s, tt.r, got, tt.want)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	src, rec := clonalRecipient(t)
	a := NewAnalyzer(src, rec, random.New(1))

	tests := []struct {
		name       string
		combos     []int
		iterations int
		want       error
	}{
		{"zero iterations", []int{1}, 0, ErrIterations},
		{"zero combo", []int{2, 0}, 10, ErrComboSize},
		{"negative combo", []int{-1}, 10, ErrComboSize},
		{"no combos", nil, 10, ErrNoCombos},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Analyze(Header{}, tt.combos, tt.iterations)
			if !errors.Is(err, tt.want) {
				t.Errorf("Analyze() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAnalyzeClonalRecipient(t *testing.T) {
	src, rec := clonalRecipient(t)
	a := NewAnalyzer(src, rec, random.New(3))

	st, err := a.Analyze(Header{RunId: "x"}, []int{5, 1, 5, 2}, 300)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	var sizes []int
	for _, c := range st.Combos {
		sizes = append(sizes, c.Size)
	}
	if !reflect.DeepEqual(sizes, []int{1, 2, 5}) {
		t.Fatalf("combo sizes = %v, want [1 2 5]", sizes)
	}

	// Every source genome either shares a segregating site with the
	// recipient or has a private segregating one, so every trial detects.
	for _, c := range st.Combos {
		if c.CombinedFraction != 1 {
			t.Errorf("combo %d combined fraction = %g, want 1", c.Size, c.CombinedFraction)
		}
		if len(c.SegDiffs) != 300 {
			t.Errorf("combo %d has %d seg diffs, want 300", c.Size, len(c.SegDiffs))
		}
		for _, d := range c.SegDiffs {
			if d < 0 || d > c.Size {
				t.Fatalf("combo %d seg diff %d out of range", c.Size, d)
			}
		}
	}

	// With one pair, 2 of the 3 source genomes pass each tier
	one, ok := st.Combo(1)
	if !ok {
		t.Fatal("Combo(1) missing")
	}
	if one.Tier1Fraction < 0.55 || one.Tier1Fraction > 0.78 ||
		one.Tier2Fraction < 0.55 || one.Tier2Fraction > 0.78 {
		t.Errorf("combo 1 fractions %g, %g; want ~2/3", one.Tier1Fraction, one.Tier2Fraction)
	}
	if _, ok := st.Combo(3); ok {
		t.Error("Combo(3) found but wasn't asked for")
	}

	if st.SampleSize != 3 || len(st.SourceSample) != 3 || len(st.RecipientSample) != 2 {
		t.Errorf("sample echo: size %d, %d source, %d recipient",
			st.SampleSize, len(st.SourceSample), len(st.RecipientSample))
	}
}

func TestFractionsInRange(t *testing.T) {
	rs := random.New(11)
	rows := func(n, base int) [][]int {
		ret := make([][]int, n)
		for i := range ret {
			n := 1 + rs.Uniform(5)
			for j := 0; j < n; j++ {
				ret[i] = append(ret[i], base+rs.Uniform(8))
			}
		}
		return ret
	}
	src := mustSample(t, rows(20, 0)...)
	rec := mustSample(t, rows(20, 4)...)

	st, err := NewAnalyzer(src, rec, rs).Analyze(Header{}, []int{1, 3, 10}, 100)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, c := range st.Combos {
		for _, f := range []float64{c.Tier1Fraction, c.Tier2Fraction,
			c.CombinedFraction, c.ClumpinessFraction} {
			if f < 0 || f > 1 {
				t.Errorf("combo %d fraction %g outside [0, 1]", c.Size, f)
			}
		}
		if c.CombinedFraction < c.Tier1Fraction || c.CombinedFraction < c.Tier2Fraction {
			t.Errorf("combo %d combined %g below a tier (%g, %g)", c.Size,
				c.CombinedFraction, c.Tier1Fraction, c.Tier2Fraction)
		}
	}
}

func TestDisjointSamples(t *testing.T) {
	src := mustSample(t, []int{1, 2}, []int{1, 3}, []int{4})
	rec := mustSample(t, []int{101}, []int{102, 103}, []int{101, 104})

	st, err := NewAnalyzer(src, rec, random.New(5)).Analyze(Header{}, []int{1, 4, 9}, 200)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, c := range st.Combos {
		if c.Tier1Fraction != 0 {
			t.Errorf("combo %d tier 1 fraction = %g, want 0", c.Size, c.Tier1Fraction)
		}
		for i, d := range c.SegDiffs {
			if d != 0 {
				t.Fatalf("combo %d trial %d seg diff = %d, want 0", c.Size, i, d)
			}
		}
	}
}

/*
The same genomes on both sides, each carrying a site of its own: any two
different genomes have a segregating site on the recipient branch, and a
genome paired with itself has no branches at all, so tier 2 never fires.
*/
func TestIdenticalSamples(t *testing.T) {
	rows := [][]int{{1, 10}, {1, 2, 11}, {1, 2, 12}, {13}}
	src := mustSample(t, rows...)
	rec := mustSample(t, rows...)

	st, err := NewAnalyzer(src, rec, random.New(6)).Analyze(Header{}, []int{1, 2, 8}, 200)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for _, c := range st.Combos {
		if c.Tier2Fraction != 0 {
			t.Errorf("combo %d tier 2 fraction = %g, want 0", c.Size, c.Tier2Fraction)
		}
		// Same SNP tables on both sides, so the ancestral counts cancel
		if c.Tier1Fraction != 0 {
			t.Errorf("combo %d tier 1 fraction = %g, want 0", c.Size, c.Tier1Fraction)
		}
	}
}

func TestAnalyzeIsReproducible(t *testing.T) {
	src, rec := clonalRecipient(t)
	run := func() *Stats {
		st, err := NewAnalyzer(src, rec, random.New(99)).Analyze(Header{}, []int{1, 3}, 50)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		return st
	}
	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Error("two analyses with the same seed differ")
	}
}

func TestWriters(t *testing.T) {
	st := &Stats{
		Header: Header{
			RunId:             "abc",
			Repetition:        2,
			SourceGenerations: 500,
			Bottleneck:        1,
			NumBins:           10,
		},
		Iterations: 3,
		Combos: []ComboStats{
			{Size: 1, Tier1Fraction: 0.5, Tier2Fraction: 0.25,
				CombinedFraction: 0.75, ClumpinessFraction: 0.5,
				SegDiffs: []int{1, -1, 3}},
		},
	}

	if got := st.FileName("stats"); got != "stats-run-abc-srcgen-500-rep-2" {
		t.Errorf("FileName() = %s", got)
	}

	var buf bytes.Buffer
	if err := st.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	for _, want := range []string{"run id: abc", "bottleneck: 1",
		"num bins: 10", "tier 1 fraction: 0.5", "clumpiness fraction: 0.5",
		"average ancestral branch diff: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("WriteText() missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := st.WriteSegs(&buf); err != nil {
		t.Fatalf("WriteSegs() error = %v", err)
	}
	if buf.String() != "1: 1,-1,3,\n" {
		t.Errorf("WriteSegs() = %q", buf.String())
	}

	buf.Reset()
	if err := st.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("WriteJSON() wrote bad JSON: %v", err)
	}
	if back["run_id"] != "abc" || back["combos"] == nil {
		t.Errorf("WriteJSON() = %s", buf.String())
	}
}
