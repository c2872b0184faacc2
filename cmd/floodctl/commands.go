package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-flood-watch/internal/csvio"
	"github.com/mr1hm/go-flood-watch/internal/models"
	"github.com/mr1hm/go-flood-watch/internal/report"
	"github.com/mr1hm/go-flood-watch/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all observations with the reference stations",
		Long: `Clear the observation table and insert a fresh dataset.

Without --csv the 25 built-in stations are inserted, all Normal and
stamped at 07:00 today in the display zone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := seed.Stations(a.now(), a.loc)
			if csvPath != "" {
				var err error
				if records, err = seed.FromCSV(csvPath); err != nil {
					return err
				}
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := a.withTimeout()
			defer cancel()

			seeded, err := db.ReplaceAll(ctx, records)
			if err != nil {
				return fmt.Errorf("error seeding: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d stations\n", len(seeded))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Load stations from a CSV file instead of the built-in set")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var qf queryFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the observation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.loadTable(&qf)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLEVEL\tWATER (M)\tWEATHER\tUPDATED")
			for _, o := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%s\t%s\n",
					o.ID, o.Name, o.WarningLevel, o.WaterLevel, orDash(o.Weather),
					o.LastUpdated.In(a.loc).Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	qf.register(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		qf     queryFlags
		format string
		outDir string
		stem   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the observation table to a PDF or CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "pdf" && format != "csv" {
				return fmt.Errorf("unsupported format %q (want pdf or csv)", format)
			}
			if stem == "" {
				stem = a.cfg.Report.FileStem
			}

			rows, err := a.loadTable(&qf)
			if err != nil {
				return err
			}

			now := a.now()

			var buf bytes.Buffer
			var name string
			switch format {
			case "pdf":
				formatter := report.New(report.Config{
					Title:        a.cfg.Report.Title,
					Subtitle:     a.cfg.Report.Subtitle,
					ProductLabel: a.cfg.Report.ProductLabel,
					Location:     a.loc,
					Compress:     true,
				})
				name = formatter.Filename(stem, now)
				err = formatter.Render(&buf, rows, now)
			case "csv":
				name = report.Filename(stem, "csv", now, a.loc)
				err = csvio.Write(&buf, rows, a.loc)
			}
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("error creating output dir: %w", err)
			}
			path := filepath.Join(outDir, name)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("error writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d records)\n", path, len(rows))
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "pdf", "Output format: pdf or csv")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&stem, "stem", "", "File name stem (default: REPORT_FILE_STEM)")
	return cmd
}

func (a *app) loadTable(qf *queryFlags) ([]models.Observation, error) {
	q, err := qf.query()
	if err != nil {
		return nil, err
	}

	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ctx, cancel := a.withTimeout()
	defer cancel()

	list, err := db.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing observations: %w", err)
	}
	return q.Apply(list), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
