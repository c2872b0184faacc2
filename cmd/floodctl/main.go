// Command floodctl is the operator CLI for the flood observation store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-flood-watch/internal/config"
	"github.com/mr1hm/go-flood-watch/internal/logging"
	"github.com/mr1hm/go-flood-watch/internal/repository"
	"github.com/mr1hm/go-flood-watch/internal/table"
)

type app struct {
	cfg     *config.Config
	loc     *time.Location
	dbPath  string
	timeout time.Duration
	now     func() time.Time
}

func (a *app) openDB() (*repository.SQLiteDB, error) {
	path := a.dbPath
	if path == "" {
		path = a.cfg.DB.Path
	}
	return repository.NewSQLiteDB(path)
}

func (a *app) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

// queryFlags are the table view filters shared by list and export.
type queryFlags struct {
	search string
	sort   string
	desc   bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "q", "q", "", "Case-insensitive search over name, level and weather")
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort column: id, name, warningLevel, waterLevel, weather, lastUpdated")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "Sort descending")
}

func (f *queryFlags) query() (table.Query, error) {
	col, err := table.ParseColumn(f.sort)
	if err != nil {
		return table.Query{}, err
	}
	return table.Query{Search: f.search, Sort: col, Desc: f.desc}, nil
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	rootCmd := &cobra.Command{
		Use:           "floodctl",
		Short:         "Manage flood observation data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			if a.loc, err = cfg.Display.Location(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database path (default: DB_PATH)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", time.Minute, "Operation timeout")

	rootCmd.AddCommand(newSeedCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newExportCmd(a))

	return rootCmd
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
