package population

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bottlesim/genomes"
	"bottlesim/logging"
	"bottlesim/mutations"
	"bottlesim/random"
)

// Log progress this often while evolving
const PROGRESS_INTERVAL = 500

var (
	ErrCapacity     = errors.New("carrying capacity must be at least 1")
	ErrBottleneck   = errors.New("bottleneck must be at least 1")
	ErrMutationRate = errors.New("mutation rate must be between 0 and 1")
	ErrGenomeLength = errors.New("genome length must be at least 1")
	ErrGenerations  = errors.New("generations must be non-negative")
	ErrEmpty        = errors.New("population has no genomes")
)

// The things that stay fixed for the life of a Population
type Params struct {
	MutationRate     float64 // per site, per genome, per generation
	GenomeLength     int
	CarryingCapacity int
}

func (p Params) Validate() error {
	if !(p.MutationRate >= 0 && p.MutationRate <= 1) {
		return fmt.Errorf("%w, got %g", ErrMutationRate, p.MutationRate)
	}
	if p.GenomeLength < 1 {
		return fmt.Errorf("%w, got %d", ErrGenomeLength, p.GenomeLength)
	}
	if p.CarryingCapacity < 1 {
		return fmt.Errorf("%w, got %d", ErrCapacity, p.CarryingCapacity)
	}
	return nil
}

/*
A Population owns its genomes outright. Each generation is replicate, mutate
then select, in that order, and all of them draw from the same random Source,
so for a given seed the whole history is reproducible.
*/
type Population struct {
	name       string
	params     Params
	genomes    []genomes.Genome
	rs         *random.Source
	log        *slog.Logger
	generation int
	bottleneck int // 0 unless founded by NewFromBottleneck
}

// A population that starts from a single genome with no mutations
func NewFounder(name string, params Params,
	rs *random.Source, log *slog.Logger) (*Population, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("founding %s: %w", name, err)
	}
	return &Population{
		name:    name,
		params:  params,
		genomes: []genomes.Genome{genomes.New()},
		rs:      rs,
		log:     logging.OrDiscard(log),
	}, nil
}

/*
The transmission event. Draw bottleneck genomes from src uniformly with
replacement, copying each one, and use them to found a new population with
the same parameters.
*/
func NewFromBottleneck(name string, src *Population, bottleneck int,
	rs *random.Source) (*Population, error) {
	if bottleneck < 1 {
		return nil, fmt.Errorf("bottleneck from %s: %w, got %d",
			src.name, ErrBottleneck, bottleneck)
	}
	if len(src.genomes) == 0 {
		return nil, fmt.Errorf("bottleneck from %s: %w", src.name, ErrEmpty)
	}

	founders := make([]genomes.Genome, bottleneck)
	for i := range founders {
		selected := rs.Uniform(len(src.genomes))
		founders[i] = src.genomes[selected].Copy()
	}

	src.log.Debug("transmission", "from", src.name, "to", name,
		"bottleneck", bottleneck, "source_size", len(src.genomes))

	return &Population{
		name:       name,
		params:     src.params,
		genomes:    founders,
		rs:         rs,
		log:        src.log,
		bottleneck: bottleneck,
	}, nil
}

// Double up: every genome gets an exact copy appended, in the same order.
func (p *Population) Replicate() {
	n := len(p.genomes)
	p.genomes = append(p.genomes, make([]genomes.Genome, n)...)
	for i := 0; i < n; i++ {
		p.genomes[n+i] = p.genomes[i].Copy()
	}
}

// Returns the number of mutations applied
func (p *Population) Mutate() (int, error) {
	num, err := mutations.Scatter(p.genomes,
		p.params.MutationRate, p.params.GenomeLength, p.rs)
	if err != nil {
		return 0, fmt.Errorf("mutate: %s generation %d: %w",
			p.name, p.generation, err)
	}
	p.log.Log(context.Background(), logging.LevelTrace, "mutate",
		"population", p.name, "generation", p.generation, "mutations", num)
	return num, nil
}

/*
Cull at random back down to the carrying capacity, one at a time: pick a
victim, move the last genome into its slot and shrink by one.
*/
func (p *Population) Select() {
	for len(p.genomes) > p.params.CarryingCapacity {
		selected := p.rs.Uniform(len(p.genomes))
		last := len(p.genomes) - 1
		p.genomes[selected] = p.genomes[last]
		p.genomes[last] = genomes.Genome{}
		p.genomes = p.genomes[:last]
	}
}

// One generation
func (p *Population) Step() error {
	p.Replicate()
	if _, err := p.Mutate(); err != nil {
		return err
	}
	p.Select()
	p.generation++
	return nil
}

func (p *Population) Evolve(generations int) error {
	if generations < 0 {
		return fmt.Errorf("evolving %s: %w, got %d",
			p.name, ErrGenerations, generations)
	}

	for i := 0; i < generations; i++ {
		if i%PROGRESS_INTERVAL == 0 {
			p.log.Debug("evolving", "population", p.name,
				"generation", p.generation, "size", len(p.genomes))
		}
		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Population) Name() string {
	return p.name
}

func (p *Population) Params() Params {
	return p.params
}

func (p *Population) Len() int {
	return len(p.genomes)
}

// The population's own genomes, so don't modify them
func (p *Population) Genomes() []genomes.Genome {
	return p.genomes
}

// How many generations this population has evolved for
func (p *Population) Generation() int {
	return p.generation
}

func (p *Population) Bottleneck() int {
	return p.bottleneck
}

// Total mutations carried, counting every genome separately
func (p *Population) MutationCount() int {
	var ret int
	for _, g := range p.genomes {
		ret += g.Len()
	}
	return ret
}
