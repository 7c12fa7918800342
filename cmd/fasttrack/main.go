package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/joshharrison/fasttrack/internal/config"
	"github.com/joshharrison/fasttrack/internal/engine"
	"github.com/joshharrison/fasttrack/internal/graph"
	"github.com/joshharrison/fasttrack/internal/logging"
	"github.com/joshharrison/fasttrack/internal/store"
)

var (
	flagSchedule   string
	flagConfig     string
	flagJSON       bool
	flagDataDate   int
	flagJournalDir string
	flagLogLevel   string
)

// Set up by the root command before any subcommand runs.
var (
	fsys      afero.Fs = afero.NewOsFs()
	appConfig *config.Config
	logCloser io.Closer
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fasttrack",
		Short: "Critical path scheduling with fast-track analysis",
		Long: `fasttrack computes early and late dates, float and the critical path of
an activity network, proposes finish-to-start links that can be overlapped to
compress the schedule, and validates batches of field progress updates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(fsys, flagConfig)
			if err != nil {
				return err
			}
			if flagLogLevel != "" {
				cfg.Log.Level = flagLogLevel
			}
			appConfig = cfg

			var logger *slog.Logger
			logger, logCloser = logging.New(cfg.Log, os.Stderr)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagSchedule, "schedule", "s", "schedule.yaml", "Schedule document (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().IntVar(&flagDataDate, "data-date", -1, "Override the document's data date")
	rootCmd.PersistentFlags().StringVar(&flagJournalDir, "journal-dir", store.StateDir, "Directory holding the commit journal")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(cpmCmd())
	rootCmd.AddCommand(opportunitiesCmd())
	rootCmd.AddCommand(implementCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(varianceCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}

// loadEngine is shared setup for every command that reads the schedule.
func loadEngine(ctx context.Context) (*engine.Engine, store.Document, error) {
	doc, err := store.LoadSchedule(fsys, flagSchedule)
	if err != nil {
		return nil, store.Document{}, err
	}
	g, err := doc.Graph()
	if err != nil {
		return nil, store.Document{}, fmt.Errorf("build schedule %s: %w", flagSchedule, err)
	}
	if g.ActivityCount() == 0 {
		return nil, store.Document{}, fmt.Errorf("schedule %s has no activities", flagSchedule)
	}

	e := engine.New(g, appConfig.Engine())
	if flagDataDate >= 0 {
		if err := e.SetDataDate(ctx, flagDataDate); err != nil {
			return nil, store.Document{}, err
		}
	}
	return e, doc, nil
}

// saveSchedule writes the engine's current graph back to the schedule file.
// The data date stays as loaded; --data-date only applies to this run.
func saveSchedule(e *engine.Engine, loaded store.Document) error {
	var doc store.Document
	e.View(func(g *graph.Graph) { doc = store.FromGraph(loaded.Name, g) })
	doc.DataDate = loaded.DataDate
	return store.SaveSchedule(fsys, flagSchedule, doc)
}

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
