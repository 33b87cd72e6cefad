package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"bottlesim/config"
	"bottlesim/database"
	"bottlesim/logging"
	"bottlesim/simulation"
	"bottlesim/stats"
	"bottlesim/transmission"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Flags that override the parameter file, shared by run, sweep and analyze
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("run-id", "", "Run id for output names (default: random)")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Int("iterations", 0, "Trials per combination size")
	cmd.Flags().Int("bins", 0, "Proportion bins for the clumpiness test")
	cmd.Flags().String("out", "", "Output directory")
	cmd.Flags().String("db", "", "SQLite file to record results in")
	cmd.Flags().Bool("no-gzip", false, "Don't compress output files")
	cmd.Flags().Bool("save-populations", false, "Also write both final populations")
}

/*
Defaults, then the parameter file if there is one, then any flags that were
actually given. Validated before it's returned.
*/
func loadParams(cmd *cobra.Command) (*config.Params, error) {
	p := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		p, err = config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		p.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("run-id") {
		p.RunId, _ = flags.GetString("run-id")
	}
	if flags.Changed("seed") {
		p.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("iterations") {
		p.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("bins") {
		p.NumBins, _ = flags.GetInt("bins")
	}
	if flags.Changed("repetitions") {
		p.Repetitions, _ = flags.GetInt("repetitions")
	}
	if flags.Changed("workers") {
		p.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("out") {
		p.Output.Dir, _ = flags.GetString("out")
	}
	if flags.Changed("db") {
		p.Output.Database, _ = flags.GetString("db")
	}
	if noGzip, _ := flags.GetBool("no-gzip"); noGzip {
		p.Output.Gzip = false
	}
	if save, _ := flags.GetBool("save-populations"); save {
		p.Output.SavePopulations = true
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	simulation.EnsureRunId(p)
	return p, nil
}

func newLogger(p *config.Params) *slog.Logger {
	return logging.NewLogger(p.LogLevel, os.Stderr)
}

// The Writer for p's outputs. Call the returned function when done with it.
func openWriter(p *config.Params, log *slog.Logger) (*simulation.Writer, func(), error) {
	var db *database.DB
	if p.Output.Database != "" {
		var err error
		db, err = database.Open(p.Output.Database)
		if err != nil {
			return nil, nil, err
		}
	}

	done := func() {
		if db != nil {
			if err := db.Close(); err != nil {
				log.Error("closing database", "error", err)
			}
		}
	}
	return simulation.NewWriter(p.Output, db, log), done, nil
}

func printCombos(w io.Writer, combos []transmission.ComboStats) {
	for _, c := range combos {
		sum := stats.Summarize(c.SegDiffs)
		fmt.Fprintf(w, "  combo %d: tier 1 %.3f  tier 2 %.3f  combined %.3f  "+
			"clumpiness %.3f  seg diff %.2f ± %.2f\n", c.Size, c.Tier1Fraction,
			c.Tier2Fraction, c.CombinedFraction, c.ClumpinessFraction,
			sum.Mean, sum.StdDev)
	}
}

func printResult(w io.Writer, res *simulation.Result, files []string) {
	st := res.Stats
	fmt.Fprintf(w, "run %s rep %d (seed %d)\n", st.RunId, st.Repetition, st.Seed)
	fmt.Fprintf(w, "  source: %s genomes, %s mutations\n",
		humanize.Comma(int64(res.Source.Len())),
		humanize.Comma(int64(res.Source.MutationCount())))
	fmt.Fprintf(w, "  recipient: %s genomes, %s mutations\n",
		humanize.Comma(int64(res.Recipient.Len())),
		humanize.Comma(int64(res.Recipient.MutationCount())))
	printCombos(w, st.Combos)
	for _, f := range files {
		fmt.Fprintf(w, "  wrote %s\n", f)
	}
}
