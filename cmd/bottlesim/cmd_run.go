package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"bottlesim/simulation"
	"bottlesim/transmission"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one repetition and analyze it",
		Long: `Evolve the source population, found the recipient through the
bottleneck, evolve both, then sample and analyze them. The seed used is the
configured seed plus --rep.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParams(cmd)
			if err != nil {
				return err
			}
			rep, _ := cmd.Flags().GetInt("rep")
			log := newLogger(p)

			writer, done, err := openWriter(p, log)
			if err != nil {
				return err
			}
			defer done()

			res, err := simulation.Run(cmd.Context(), p, rep, log)
			if err != nil {
				return err
			}
			files, err := writer.Write(cmd.Context(), res)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return res.Stats.WriteJSON(cmd.OutOrStdout())
			}
			printResult(cmd.OutOrStdout(), res, files)
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Int("rep", 0, "Repetition number")
	return cmd
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run several repetitions in parallel and average them",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParams(cmd)
			if err != nil {
				return err
			}
			log := newLogger(p)

			writer, done, err := openWriter(p, log)
			if err != nil {
				return err
			}
			defer done()

			var mu sync.Mutex
			var files int
			runs, err := simulation.Sweep(cmd.Context(), p, log,
				func(res *simulation.Result) error {
					written, err := writer.Write(cmd.Context(), res)
					mu.Lock()
					files += len(written)
					mu.Unlock()
					return err
				})
			if err != nil {
				return err
			}
			avg := simulation.Average(runs)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					RunId   string                    `json:"run_id"`
					Runs    []*transmission.Stats     `json:"runs"`
					Average []transmission.ComboStats `json:"average"`
				}{p.RunId, runs, avg})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %s: %s repetitions, %s trials each, %s files written\n",
				p.RunId, humanize.Comma(int64(len(runs))),
				humanize.Comma(int64(p.Iterations)), humanize.Comma(int64(files)))
			fmt.Fprintln(w, "average over repetitions:")
			printCombos(w, avg)
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Int("repetitions", 0, "Number of repetitions")
	cmd.Flags().Int("workers", 0, "Repetitions to run at once")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SOURCE RECIPIENT",
		Short: "Analyze two saved population files",
		Long: `Sample and analyze populations written by an earlier run with
--save-populations, without evolving anything. Plain or gzipped files.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParams(cmd)
			if err != nil {
				return err
			}
			rep, _ := cmd.Flags().GetInt("rep")
			log := newLogger(p)

			// They're already on disk
			p.Output.SavePopulations = false

			writer, done, err := openWriter(p, log)
			if err != nil {
				return err
			}
			defer done()

			res, err := simulation.AnalyzeFiles(cmd.Context(), p,
				args[0], args[1], rep, log)
			if err != nil {
				return err
			}
			files, err := writer.Write(cmd.Context(), res)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return res.Stats.WriteJSON(cmd.OutOrStdout())
			}
			printResult(cmd.OutOrStdout(), res, files)
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().Int("rep", 0, "Repetition number (picks the seed)")
	return cmd
}
