package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"bottlesim/config"
	"bottlesim/genomes"
	"bottlesim/logging"
	"bottlesim/population"
	"bottlesim/random"
	"bottlesim/sample"
	"bottlesim/stats"
	"bottlesim/transmission"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// What one repetition leaves behind
type Result struct {
	Stats     *transmission.Stats
	Source    *population.Population
	Recipient *population.Population
}

// Give p a short random run id if it doesn't have one
func EnsureRunId(p *config.Params) {
	if p.RunId == "" {
		p.RunId = uuid.NewString()[:8]
	}
}

func header(p *config.Params, rep int, seed int64) transmission.Header {
	return transmission.Header{
		RunId:                p.RunId,
		Repetition:           rep,
		Seed:                 seed,
		MutationRate:         p.MutationRate,
		GenomeLength:         p.GenomeLength,
		CarryingCapacity:     p.CarryingCapacity,
		SampleSize:           p.SampleSize,
		SourceGenerations:    p.SourceGenerations,
		RecipientGenerations: p.RecipientGenerations,
		Bottleneck:           p.Bottleneck,
		NumBins:              p.NumBins,
	}
}

/*
Evolve in chunks so a long run notices being cancelled without the
population having to know about contexts.
*/
func evolve(ctx context.Context, pop *population.Population, generations int) error {
	for done := 0; done < generations; {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(population.PROGRESS_INTERVAL, generations-done)
		if err := pop.Evolve(n); err != nil {
			return err
		}
		done += n
	}
	return nil
}

/*
Sample both populations and run the analysis. The samples draw from rs
before the analyzer does, source first.
*/
func analyze(ctx context.Context, p *config.Params, h transmission.Header,
	src, rec []genomes.Genome, rs *random.Source) (*transmission.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}

	// sample and Analyze errors already say which stage they came from
	srcSample, err := sample.New(src, p.SampleSize, rs)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	recSample, err := sample.New(rec, p.SampleSize, rs)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return transmission.NewAnalyzer(srcSample, recSample, rs).
		Analyze(h, p.ComboSizes, p.Iterations)
}

/*
One full repetition: found the source from a single clean genome, evolve it,
push bottleneck genomes through to found the recipient, evolve both for the
recipient generations, then sample each and compare. Everything draws from
one Source seeded with p.Seed + rep.
*/
func Run(ctx context.Context, p *config.Params,
	rep int, log *slog.Logger) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	EnsureRunId(p)

	seed := p.Seed + int64(rep)
	rs := random.New(seed)
	log = logging.OrDiscard(log).With("run", p.RunId, "rep", rep)

	src, err := population.NewFounder("source", p.Population(), rs, log)
	if err != nil {
		return nil, err
	}

	log.Info("evolving source", "generations", p.SourceGenerations,
		"capacity", p.CarryingCapacity)
	if err := evolve(ctx, src, p.SourceGenerations); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bottleneck: %w", err)
	}
	rec, err := population.NewFromBottleneck("recipient", src, p.Bottleneck, rs)
	if err != nil {
		return nil, fmt.Errorf("bottleneck: %w", err)
	}

	log.Info("evolving both", "generations", p.RecipientGenerations,
		"bottleneck", p.Bottleneck)
	if err := evolve(ctx, rec, p.RecipientGenerations); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	if err := evolve(ctx, src, p.RecipientGenerations); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	log.Info("analyzing", "generation", src.Generation(),
		"sample_size", p.SampleSize, "combo_sizes", p.ComboSizes,
		"iterations", p.Iterations)
	st, err := analyze(ctx, p, header(p, rep, seed),
		src.Genomes(), rec.Genomes(), rs)
	if err != nil {
		return nil, err
	}

	return &Result{Stats: st, Source: src, Recipient: rec}, nil
}

/*
Run p.Repetitions repetitions, p.Workers at a time. each (if not nil) is
called as every repetition finishes, possibly from several goroutines at
once. The first error cancels the rest. Stats come back in repetition order
whatever order they finished in.
*/
func Sweep(ctx context.Context, p *config.Params, log *slog.Logger,
	each func(*Result) error) ([]*transmission.Stats, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	EnsureRunId(p)

	ret := make([]*transmission.Stats, p.Repetitions)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)

	for rep := 0; rep < p.Repetitions; rep++ {
		g.Go(func() error {
			res, err := Run(ctx, p, rep, log)
			if err != nil {
				return fmt.Errorf("repetition %d: %w", rep, err)
			}
			if each != nil {
				if err := each(res); err != nil {
					return fmt.Errorf("repetition %d: %w", rep, err)
				}
			}
			ret[rep] = res.Stats
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

/*
Mean fractions per combination size over a set of runs. A size missing from
some runs is averaged over the runs that have it. SegDiffs are every run's
trials one after the other.
*/
func Average(runs []*transmission.Stats) []transmission.ComboStats {
	type acc struct {
		tier1, tier2, combined, clumpiness []float64
		segDiffs                           []int
	}
	bySize := make(map[int]*acc)

	for _, st := range runs {
		for _, c := range st.Combos {
			a, there := bySize[c.Size]
			if !there {
				a = &acc{}
				bySize[c.Size] = a
			}
			a.tier1 = append(a.tier1, c.Tier1Fraction)
			a.tier2 = append(a.tier2, c.Tier2Fraction)
			a.combined = append(a.combined, c.CombinedFraction)
			a.clumpiness = append(a.clumpiness, c.ClumpinessFraction)
			a.segDiffs = append(a.segDiffs, c.SegDiffs...)
		}
	}

	sizes := make([]int, 0, len(bySize))
	for size := range bySize {
		sizes = append(sizes, size)
	}
	slices.Sort(sizes)

	ret := make([]transmission.ComboStats, len(sizes))
	for i, size := range sizes {
		a := bySize[size]
		ret[i] = transmission.ComboStats{
			Size:               size,
			Tier1Fraction:      stats.Mean(a.tier1),
			Tier2Fraction:      stats.Mean(a.tier2),
			CombinedFraction:   stats.Mean(a.combined),
			ClumpinessFraction: stats.Mean(a.clumpiness),
			SegDiffs:           a.segDiffs,
		}
	}
	return ret
}
