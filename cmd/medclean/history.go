package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OliseNS/FinetuneGemma/internal/config"
	"github.com/OliseNS/FinetuneGemma/internal/report"
	"github.com/OliseNS/FinetuneGemma/internal/storage/sqlite"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past cleaning runs",
	Long: `List runs recorded in the history database, or show one run in detail
with its removal counts per reason.

The database comes from --history-db, or history_db in the config file, or
MEDCLEAN_HISTORY_DB.

Examples:
  medclean history                     # Most recent runs
  medclean history --limit 50
  medclean history 6f1c...             # One run with reason counts
  medclean history 6f1c... --events    # ...and its stored events
  medclean history 6f1c... --report r.md  # Re-render its removal report`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		out := cmd.OutOrStdout()
		if len(args) == 0 {
			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			printRunList(out, runs)
			return nil
		}

		runID := args[0]
		run, err := store.GetRun(ctx, runID)
		if errors.Is(err, sqlite.ErrRunNotFound) {
			return fmt.Errorf("no run %q in %s", runID, store.Path())
		}
		if err != nil {
			return err
		}
		counts, err := store.ReasonCounts(ctx, runID)
		if err != nil {
			return err
		}
		printRunDetail(out, run, counts)

		if showEvents, _ := cmd.Flags().GetBool("events"); showEvents {
			stored, err := store.GetRunEvents(ctx, runID, minSeverity())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			console := newConsoleSink(out)
			for _, event := range stored {
				console.Emit(event)
			}
		}

		if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
			entries, err := store.GetRemovals(ctx, runID)
			if err != nil {
				return err
			}
			if err := report.Write(reportPath, entries, run.CompletedAt); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s Removal report written to %s\n", color.GreenString("✓"), reportPath)
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old runs from the history database",
	Long: `Delete runs older than the retention period, then all but the newest runs
beyond the run limit. Removal logs and events are deleted with their run.

Configuration is read from MEDCLEAN_HISTORY_RETENTION_DAYS (default 90),
MEDCLEAN_HISTORY_MAX_RUNS (default 200, 0 for unlimited) and
MEDCLEAN_HISTORY_VACUUM; flags override them.

Examples:
  medclean history prune
  medclean history prune --retention-days 30 --vacuum`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		retention, err := config.HistoryRetentionConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load retention configuration: %w", err)
		}
		flags := cmd.Flags()
		if flags.Changed("retention-days") {
			retention.RetentionDays, _ = flags.GetInt("retention-days")
		}
		if flags.Changed("max-runs") {
			retention.MaxRuns, _ = flags.GetInt("max-runs")
		}
		if flags.Changed("vacuum") {
			retention.Vacuum, _ = flags.GetBool("vacuum")
		}
		if err := retention.Validate(); err != nil {
			return err
		}

		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		cutoff := time.Now().AddDate(0, 0, -retention.RetentionDays)
		deleted, err := store.PruneRuns(ctx, cutoff, retention.MaxRuns)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(out, "%s Deleted %d runs (%s)\n", green("✓"), deleted, retention)
		if retention.Vacuum {
			if err := store.Vacuum(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s VACUUM complete\n", green("✓"))
		}
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().String("history-db", "", "SQLite history database")
	historyCmd.Flags().Int("limit", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().Bool("events", false, "Also print the run's stored events")
	historyCmd.Flags().String("report", "", "Re-render the run's removal report to this path")

	historyPruneCmd.Flags().Int("retention-days", 0, "Delete runs older than N days")
	historyPruneCmd.Flags().Int("max-runs", 0, "Keep at most N runs (0 for unlimited)")
	historyPruneCmd.Flags().Bool("vacuum", false, "Run VACUUM after pruning to reclaim disk space")

	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory finds the ledger path from the flag or the run configuration.
func openHistory(cmd *cobra.Command) (*sqlite.Store, error) {
	path, _ := cmd.Flags().GetString("history-db")
	if path == "" {
		cfg, err := config.Load(configPath, baseDir)
		if err != nil {
			return nil, err
		}
		if err := cfg.Resolve(); err != nil {
			return nil, err
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		return nil, errors.New("no history database configured (use --history-db or history_db)")
	}
	return sqlite.Open(path)
}

func printRunList(w io.Writer, runs []*sqlite.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintf(w, "%s\n", color.HiBlackString("No runs recorded"))
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, run := range runs {
		dry := ""
		if run.DryRun {
			dry = yellow(" (dry run)")
		}
		fmt.Fprintf(w, "%s  %s  %d -> %d (%.1f%%)%s\n",
			gray(run.StartedAt.Local().Format("2006-01-02 15:04:05")),
			run.ID, run.Total, run.Remaining(), run.RetentionRate(), dry)
	}
}

func printRunDetail(w io.Writer, run *sqlite.RunRecord, counts []sqlite.ReasonCount) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s\n", cyan("=== Run "+run.ID+" ==="))
	fmt.Fprintf(w, "  Started:    %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Duration:   %s\n", formatDurationMs(int(run.DurationMs)))
	fmt.Fprintf(w, "  Input:      %s\n", run.InputPath)
	if run.DryRun {
		fmt.Fprintf(w, "  Output:     %s\n", color.YellowString("(dry run)"))
	} else {
		fmt.Fprintf(w, "  Output:     %s\n", run.OutputPath)
	}
	fmt.Fprintf(w, "  Report:     %s\n", run.ReportPath)
	fmt.Fprintf(w, "  Thresholds: similarity %.2f, instruction %.2f\n", run.SimilarityThreshold, run.InstructionThreshold)
	fmt.Fprintf(w, "  Records:    %d total, %d removed, %d remaining (%.1f%%)\n",
		run.Total, run.Removed, run.Remaining(), run.RetentionRate())
	fmt.Fprintf(w, "  Stages:     %d low quality, %d exact, %d near (%d comparisons)\n",
		run.LowQuality, run.ExactDuplicates, run.NearDuplicates, run.Comparisons)
	if run.SkippedLines > 0 {
		fmt.Fprintf(w, "  Skipped:    %d malformed lines\n", run.SkippedLines)
	}

	if len(counts) > 0 {
		fmt.Fprintf(w, "\n  %-40s %s\n", "Reason", "Count")
		for _, rc := range counts {
			fmt.Fprintf(w, "  %-40s %d\n", rc.Reason, rc.Count)
		}
	}
}
