package genomes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"bottlesim/random"
	"bottlesim/utils"
)

/*
A haploid genome under the infinite sites model is just the list of sites
where it has picked up mutations, in the order they happened. Sites aren't
deduplicated: if the same site gets hit twice it's in there twice.
*/
type Genome struct {
	sites []int
}

// A founder with no mutations
func New() Genome {
	return Genome{}
}

func FromSites(sites []int) Genome {
	return Genome{slices.Clone(sites)}
}

// Deep copy, so the two can go on mutating independently
func (g Genome) Copy() Genome {
	return FromSites(g.sites)
}

/*
Append one new mutation at a uniformly random site in [0, length]. Note the
range is inclusive, so there are length+1 possible sites.
*/
func (g *Genome) AddRandomMutation(rs *random.Source, length int) int {
	site := rs.Uniform(length + 1)
	g.sites = append(g.sites, site)
	return site
}

// Don't modify what you get back
func (g Genome) Sites() []int {
	return g.sites
}

func (g Genome) Len() int {
	return len(g.sites)
}

// Just presence/absence
func (g Genome) Set() map[int]bool {
	return utils.ToSet(g.sites)
}

func (g Genome) Equal(other Genome) bool {
	return slices.Equal(g.sites, other.sites)
}

/*
The row format of a population file: every site followed by a comma, so a
genome with no mutations is an empty line.
*/
func (g Genome) ToString() string {
	var sb strings.Builder
	for _, s := range g.sites {
		sb.WriteString(strconv.Itoa(s))
		sb.WriteByte(',')
	}
	return sb.String()
}

// Parse a row written by ToString. Spaces and a missing last comma are fine.
func Parse(line string) (Genome, error) {
	line = strings.Trim(strings.TrimSpace(line), ",")
	if line == "" {
		return New(), nil
	}

	fields := strings.Split(line, ",")
	sites := make([]int, len(fields))
	for i, f := range fields {
		var err error
		sites[i], err = strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return Genome{}, fmt.Errorf("bad site <%s>: %w", f, err)
		}
		if sites[i] < 0 {
			return Genome{}, fmt.Errorf("negative site %d", sites[i])
		}
	}
	return Genome{sites}, nil
}
