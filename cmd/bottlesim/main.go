package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bottlesim",
		Short: "Transmission bottleneck simulator",
		Long: `bottlesim evolves a source population of haploid genomes, pushes a few
of them through a transmission bottleneck to found a recipient population,
evolves both, and then measures how often samples from the two show the
signature of that bottleneck.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Parameter file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "info, debug or trace (overrides the parameter file)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
