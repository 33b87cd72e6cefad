// Package config loads the parameters of a simulation run.
// Files are YAML; the JSON parameter files of older runs load unchanged since
// JSON is a subset of YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"bottlesim/logging"
	"bottlesim/population"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid parameters")

// Params is everything a run needs. Keys match the parameter files the
// simulator has always read, spaces and all.
type Params struct {
	// RunId tags every output file and database row. Empty means generate one.
	RunId string `json:"run_id" yaml:"run id"`

	// MutationRate is the chance of a mutation per site, per genome, per
	// generation.
	MutationRate float64 `json:"mutation_rate" yaml:"mutation rate"`

	// GenomeLength sets the site range: mutations land in [0, GenomeLength].
	GenomeLength int `json:"genome_length" yaml:"genome size"`

	CarryingCapacity     int `json:"carrying_capacity" yaml:"carrying capacity"`
	SourceGenerations    int `json:"source_generations" yaml:"source generations"`
	Bottleneck           int `json:"bottleneck" yaml:"bottleneck"`
	RecipientGenerations int `json:"recipient_generations" yaml:"recipient generations"`
	SampleSize           int `json:"sample_size" yaml:"sample size"`

	// ComboSizes are the numbers of genome pairs per trial to analyze.
	ComboSizes []int `json:"combo_sizes" yaml:"combo sizes"`

	// Iterations is the number of trials per combination size.
	Iterations int `json:"iterations" yaml:"iterations"`

	// NumBins is how many proportion buckets the clumpiness test uses.
	NumBins int `json:"num_bins" yaml:"num bins"`

	// Seed for repetition r is Seed + r.
	Seed        int64 `json:"seed" yaml:"seed"`
	Repetitions int   `json:"repetitions" yaml:"repetitions"`

	// Workers is how many repetitions run at once.
	Workers int `json:"workers" yaml:"workers"`

	Output OutputConfig `json:"output" yaml:"output"`

	// LogLevel is "info" (default), "debug" or "trace".
	LogLevel string `json:"log_level" yaml:"log level"`
}

// OutputConfig says where results go.
type OutputConfig struct {
	// Dir receives the stats, segs and result files. Empty means don't write files.
	Dir string `json:"dir" yaml:"dir"`

	// Gzip compresses every file written.
	Gzip bool `json:"gzip" yaml:"gzip"`

	// SavePopulations also writes both final populations as CSV.
	SavePopulations bool `json:"save_populations" yaml:"save populations"`

	// Database is a SQLite file to record runs in. Empty means don't.
	Database string `json:"database" yaml:"database"`
}

// Default returns parameters for a modest run.
func Default() *Params {
	return &Params{
		MutationRate:         1e-5,
		GenomeLength:         30000,
		CarryingCapacity:     1000,
		SourceGenerations:    500,
		Bottleneck:           1,
		RecipientGenerations: 50,
		SampleSize:           50,
		ComboSizes:           []int{1, 2, 5, 10},
		Iterations:           200,
		NumBins:              10,
		Seed:                 1,
		Repetitions:          1,
		Workers:              1,
		Output: OutputConfig{
			Dir:  ".",
			Gzip: true,
		},
		LogLevel: "info",
	}
}

// LoadFromFile reads path over the defaults, so the file only needs the keys
// it wants to change.
func LoadFromFile(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing params file %s: %w", path, err)
	}
	return p, nil
}

// Population returns the parameters the population engine needs.
func (p *Params) Population() population.Params {
	return population.Params{
		MutationRate:     p.MutationRate,
		GenomeLength:     p.GenomeLength,
		CarryingCapacity: p.CarryingCapacity,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate fails on anything that would make a run loop forever, divide by
// zero or draw from nothing.
func (p *Params) Validate() error {
	if !(p.MutationRate >= 0 && p.MutationRate <= 1) {
		return invalid("mutation rate must be a probability in [0, 1], got %g", p.MutationRate)
	}
	if p.GenomeLength < 1 {
		return invalid("genome size must be at least 1, got %d", p.GenomeLength)
	}
	if p.CarryingCapacity < 1 {
		return invalid("carrying capacity must be at least 1, got %d", p.CarryingCapacity)
	}
	if p.SourceGenerations < 0 {
		return invalid("source generations must be non-negative, got %d", p.SourceGenerations)
	}
	if p.RecipientGenerations < 0 {
		return invalid("recipient generations must be non-negative, got %d", p.RecipientGenerations)
	}
	if p.Bottleneck < 1 {
		return invalid("bottleneck must be at least 1, got %d", p.Bottleneck)
	}
	if p.SampleSize < 1 {
		return invalid("sample size must be at least 1, got %d", p.SampleSize)
	}
	if len(p.ComboSizes) == 0 {
		return invalid("at least one combo size is needed")
	}
	for _, c := range p.ComboSizes {
		if c < 1 {
			return invalid("combo sizes must be at least 1, got %d", c)
		}
	}
	if p.Iterations < 1 {
		return invalid("iterations must be at least 1, got %d", p.Iterations)
	}
	if p.NumBins < 1 {
		return invalid("num bins must be at least 1, got %d", p.NumBins)
	}
	if p.Repetitions < 1 {
		return invalid("repetitions must be at least 1, got %d", p.Repetitions)
	}
	if p.Workers < 1 {
		return invalid("workers must be at least 1, got %d", p.Workers)
	}
	if !logging.ValidLevel(p.LogLevel) {
		return invalid("log level %q (valid: info, debug, trace)", p.LogLevel)
	}
	return nil
}
