package population

import (
	"fmt"
	"io"
	"log/slog"

	"bottlesim/genomes"
	"bottlesim/logging"
	"bottlesim/random"
	"bottlesim/utils"
)

/*
Write one genome per line in the genomes row format. If fname ends in .gz it
gets compressed.
*/
func WriteGenomes(fname string, g []genomes.Genome) error {
	return utils.WriteFile(fname, func(w io.Writer) error {
		for _, genome := range g {
			if _, err := fmt.Fprintln(w, genome.ToString()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Read back what WriteGenomes wrote (gzip or not)
func ReadGenomes(fname string) ([]genomes.Genome, error) {
	ret := make([]genomes.Genome, 0)
	lineNum := 0

	err := utils.Lines(fname, func(line string) (bool, error) {
		lineNum++
		g, err := genomes.Parse(line)
		if err != nil {
			return false, fmt.Errorf("%s:%d: %w", fname, lineNum, err)
		}
		ret = append(ret, g)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *Population) Save(fname string) error {
	if err := WriteGenomes(fname, p.genomes); err != nil {
		return fmt.Errorf("saving %s: %w", p.name, err)
	}
	p.log.Debug("saved population", "population", p.name,
		"file", fname, "size", len(p.genomes))
	return nil
}

/*
Load a population written by Save. The file only has the genomes in it so
the caller supplies the parameters to carry on evolving with.
*/
func Load(fname string, name string, params Params,
	rs *random.Source, log *slog.Logger) (*Population, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	g, err := ReadGenomes(fname)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("loading %s from %s: %w", name, fname, ErrEmpty)
	}

	return &Population{
		name:    name,
		params:  params,
		genomes: g,
		rs:      rs,
		log:     logging.OrDiscard(log),
	}, nil
}
