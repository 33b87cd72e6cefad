package main

import (
	"errors"
	"fmt"

	"bottlesim/database"
	"bottlesim/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump stored runs as a JSON array",
		Long: `Read every run recorded in the results database (or just those of
one run id) and write them out together as one JSON array. With --out the
array goes to a file, compressed if its name ends in .gz.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			if dbPath == "" {
				p, err := loadParams(cmd)
				if err != nil {
					return err
				}
				dbPath = p.Output.Database
			}
			if dbPath == "" {
				return errors.New("no database: use --db or set output.database")
			}
			runId, _ := cmd.Flags().GetString("run-id")
			out, _ := cmd.Flags().GetString("out")

			db, err := database.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if list, _ := cmd.Flags().GetBool("list"); list {
				ids, err := db.RunIds(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			if out == "" {
				_, err := db.ExportJSON(cmd.Context(), runId, cmd.OutOrStdout())
				return err
			}

			fw, err := utils.NewFileWriter(out)
			if err != nil {
				return err
			}
			n, err := db.ExportJSON(cmd.Context(), runId, fw)
			if err != nil {
				fw.Close()
				return err
			}
			if err := fw.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "exported %s runs to %s\n",
				humanize.Comma(int64(n)), out)
			return nil
		},
	}

	cmd.Flags().String("db", "", "Results database")
	cmd.Flags().String("run-id", "", "Only this run id")
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	cmd.Flags().Bool("list", false, "Just list the run ids stored")
	return cmd
}
