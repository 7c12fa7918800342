package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/fasttrack/internal/fasttrack"
	"github.com/joshharrison/fasttrack/internal/graph"
	"github.com/joshharrison/fasttrack/internal/report"
	"github.com/joshharrison/fasttrack/internal/store"
	"github.com/joshharrison/fasttrack/internal/ui"
	"github.com/joshharrison/fasttrack/internal/update"
)

func cpmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cpm",
		Short: "Compute early/late dates, float and the critical path",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, doc, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := e.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			rpt := report.New(doc.Name, snap)
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			rpt.PrintSchedule(os.Stdout)
			return nil
		},
	}
}

func opportunitiesCmd() *cobra.Command {
	var (
		flagThreshold int
		flagMax       int
		flagLeads     bool
	)

	cmd := &cobra.Command{
		Use:     "opportunities",
		Aliases: []string{"opps"},
		Short:   "List finish-to-start links that could be overlapped",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}

			cfg := appConfig.Analysis
			if cmd.Flags().Changed("threshold") {
				cfg.FloatThreshold = flagThreshold
			}
			if cmd.Flags().Changed("max") {
				cfg.MaxResults = flagMax
			}
			if cmd.Flags().Changed("allow-leads") {
				cfg.AllowLeads = flagLeads
			}

			opps, err := e.GetFastTrackOpportunities(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(opps)
			}
			report.PrintOpportunities(os.Stdout, opps)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagThreshold, "threshold", fasttrack.DefaultFloatThreshold, "Minimum total float (exclusive) for a candidate")
	cmd.Flags().IntVar(&flagMax, "max", 0, "Maximum results (0 = unlimited)")
	cmd.Flags().BoolVar(&flagLeads, "allow-leads", false, "Allow suggested lags below zero")

	return cmd
}

func implementCmd() *cobra.Command {
	var (
		flagPred   string
		flagDryRun bool
	)

	cmd := &cobra.Command{
		Use:   "implement <activity-id>",
		Short: "Convert an activity's FS predecessor link to the suggested SS overlap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, doc, err := loadEngine(ctx)
			if err != nil {
				return err
			}
			before, _, err := e.ComputeSchedule(ctx)
			if err != nil {
				return err
			}

			opps, err := e.Opportunities(ctx)
			if err != nil {
				return err
			}
			var chosen *fasttrack.Opportunity
			for i := range opps {
				if opps[i].ActivityID == args[0] && (flagPred == "" || opps[i].PredecessorID == flagPred) {
					chosen = &opps[i]
					break
				}
			}
			if chosen == nil {
				return fmt.Errorf("no fast-track opportunity for %s", args[0])
			}

			if flagDryRun {
				fmt.Printf("Would change %s to %s (saves %d days)\n",
					ui.Magenta(fmt.Sprintf("%s -> %s", chosen.PredecessorID, chosen.ActivityID)),
					ui.Bold(chosen.Dependency().String()), chosen.PotentialSavingsDays)
				return nil
			}

			dep, recomputed, err := e.ImplementFastTrack(ctx, *chosen)
			if err != nil {
				return err
			}
			if err := saveSchedule(e, doc); err != nil {
				return err
			}
			entry, err := store.OpenJournal(fsys, flagJournalDir).Append(store.Entry{
				Kind:       store.KindFastTrack,
				Schedule:   flagSchedule,
				Version:    e.Version(),
				Dependency: &dep,
				Savings:    chosen.PotentialSavingsDays,
			})
			if err != nil {
				return err
			}

			after, _, err := e.ComputeSchedule(ctx)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(map[string]interface{}{
					"dependency":          dep,
					"recompute_triggered": recomputed,
					"journal_id":          entry.ID,
					"finish_before":       before.ProjectFinish,
					"finish_after":        after.ProjectFinish,
				})
			}
			fmt.Printf("✅ %s %s\n", ui.BoldGreen("Implemented"), ui.Bold(dep.String()))
			fmt.Printf("   %s early start %d → %d, project finish %d → %d\n",
				ui.Magenta(dep.SuccessorID),
				before.Activities[dep.SuccessorID].ES, after.Activities[dep.SuccessorID].ES,
				before.ProjectFinish, after.ProjectFinish)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagPred, "pred", "", "Predecessor to overlap when the activity has several candidates")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Show the change without writing it")

	return cmd
}

func updateCmd() *cobra.Command {
	var (
		flagSelect string
		flagDryRun bool
	)

	cmd := &cobra.Command{
		Use:   "update <edits-file>",
		Short: "Validate and commit a batch of field progress updates",
		Long: `Reads a batch of edits (JSON or YAML) and commits it all-or-nothing.
Use --select to pick the edits array out of a larger JSON payload, e.g.
--select data.updates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			edits, err := store.LoadEdits(fsys, args[0], flagSelect)
			if err != nil {
				return err
			}
			e, doc, err := loadEngine(ctx)
			if err != nil {
				return err
			}

			var out *update.Outcome
			if flagDryRun {
				out = &update.Outcome{}
				e.View(func(g *graph.Graph) {
					out.Errors, out.Warnings = update.Validate(g, edits, appConfig.Update)
					out.Version = g.Version()
				})
			} else {
				out = e.ValidateAndCommit(ctx, edits)
			}

			if out.Committed {
				if err := saveSchedule(e, doc); err != nil {
					return err
				}
				if _, err := store.OpenJournal(fsys, flagJournalDir).Append(store.Entry{
					Kind:     store.KindUpdate,
					Schedule: flagSchedule,
					Version:  out.Version,
					Edits:    edits,
					Warnings: out.Warnings,
				}); err != nil {
					return err
				}
			}

			if flagJSON {
				if err := outputJSON(out); err != nil {
					return err
				}
			} else if flagDryRun && len(out.Errors) == 0 {
				fmt.Printf("✅ %s\n", ui.BoldGreen(fmt.Sprintf("%d edit(s) would commit cleanly", len(edits))))
				for _, w := range out.Warnings {
					fmt.Printf("  %s %s\n", ui.Yellow("!"), w.String())
				}
			} else {
				report.PrintOutcome(os.Stdout, out)
			}
			return out.Err()
		},
	}

	cmd.Flags().StringVar(&flagSelect, "select", "", "gjson path to the edits array in a JSON payload")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Validate only")

	return cmd
}

func varianceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variance",
		Short: "Compare current and actual dates with the baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := e.Variances(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(rows)
			}
			report.PrintVariances(os.Stdout, rows)
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Visualize the activity network",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, doc, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := e.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			rpt := report.New(doc.Name, snap)
			switch flagFormat {
			case "dot":
				return rpt.PrintDOT(os.Stdout)
			case "ascii":
				rpt.PrintWaves(os.Stdout)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want ascii or dot)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a schedule document for structural and feasibility problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			_, warnings, err := e.ComputeSchedule(cmd.Context())
			if err != nil {
				return err
			}
			if len(warnings) == 0 {
				fmt.Printf("✅ %s %s\n", ui.BoldGreen("Schedule is valid"), ui.Dim(flagSchedule))
				return nil
			}
			fmt.Printf("%s %s\n", ui.Yellow("!"), ui.BoldYellow(fmt.Sprintf("Schedule is over-constrained (%d warning(s))", len(warnings))))
			for _, w := range warnings {
				fmt.Printf("  %s %s\n", ui.Red("✗"), w.Error())
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show committed updates and implemented fast-tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := store.OpenJournal(fsys, flagJournalDir).Entries()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println(ui.Dim("No commits recorded."))
				return nil
			}
			for _, en := range entries {
				detail := fmt.Sprintf("%d edit(s)", len(en.Edits))
				if en.Dependency != nil {
					detail = fmt.Sprintf("%s, saves %d days", en.Dependency, en.Savings)
				}
				fmt.Printf("%s  %s  %-10s v%-4d %s\n",
					ui.Dim(shortID(en.ID)), en.At.Local().Format("2006-01-02 15:04"), string(en.Kind), en.Version, detail)
			}
			return nil
		},
	}
}

// shortID trims a journal ID for display. Hand-edited journals may carry
// IDs shorter than a uuid prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
