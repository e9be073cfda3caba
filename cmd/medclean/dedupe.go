package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OliseNS/FinetuneGemma/internal/config"
	"github.com/OliseNS/FinetuneGemma/internal/dataset"
	"github.com/OliseNS/FinetuneGemma/internal/pipeline"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove low-quality and duplicate records from a JSONL corpus",
	Long: `Run the quality gate, exact-duplicate and near-duplicate stages over a JSONL
corpus, write the surviving records and a Markdown removal report.

Settings are layered: built-in defaults, then the YAML config file, then
MEDCLEAN_* environment variables, then flags given on the command line.

Examples:
  medclean dedupe                                  # data/train.jsonl -> data/train_unique.jsonl
  medclean dedupe --similarity-threshold 0.8       # Only remove very close pairs
  medclean dedupe --dry-run                        # Write the report only
  medclean dedupe --history-db .medclean/history.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			return err
		}

		if err := useLogFormat(cfg.LogFormat); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		runner, err := pipeline.NewRunner(cfg, eventSink(cfg.LogFormat, out))
		if err != nil {
			return err
		}

		summary, err := runner.Run(context.Background())
		if errors.Is(err, dataset.ErrInputNotFound) {
			logger.Error("Input corpus not found, nothing to do", zap.String("path", cfg.InputPath), zap.Error(err))
			return nil
		}
		if errors.Is(err, dataset.ErrNoRecords) {
			logger.Error("No data loaded, existing output left untouched", zap.String("path", cfg.InputPath), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}

		if !quiet {
			printRunSummary(out, cfg, summary)
		}
		return nil
	},
}

func init() {
	f := dedupeCmd.Flags()
	f.String("input", "", "Input JSONL corpus (default: data/train.jsonl)")
	f.String("output", "", "Cleaned JSONL output (default: data/train_unique.jsonl)")
	f.String("report", "", "Markdown removal report (default: reports/removal_report.md)")
	f.Float64("similarity-threshold", 0.5, "Minimum overall similarity for a near-duplicate")
	f.Float64("instruction-threshold", 0.7, "Minimum instruction similarity for a near-duplicate")
	f.Bool("dry-run", false, "Detect and report without writing the cleaned corpus")
	f.String("history-db", "", "Record the run in this SQLite history database")
	f.String("term-rules", "", "YAML file overriding the medical term rules")

	rootCmd.AddCommand(dedupeCmd)
}

// loadRunConfig layers explicitly set flags over file and environment
// configuration, then resolves and validates the result.
func loadRunConfig(cmd *cobra.Command) (config.RunConfig, error) {
	cfg, err := config.Load(configPath, baseDir)
	if err != nil {
		return cfg, err
	}
	if err := applyRunFlags(cmd, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Resolve(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyRunFlags copies only the flags the user actually set.
func applyRunFlags(cmd *cobra.Command, cfg *config.RunConfig) error {
	flags := cmd.Flags()
	var err error
	set := func(name string, apply func()) {
		if err == nil && flags.Changed(name) {
			apply()
		}
	}

	set("base-dir", func() { cfg.BaseDir, err = flags.GetString("base-dir") })
	set("log-format", func() { cfg.LogFormat, err = flags.GetString("log-format") })
	set("input", func() { cfg.InputPath, err = flags.GetString("input") })
	set("output", func() { cfg.OutputPath, err = flags.GetString("output") })
	set("report", func() { cfg.ReportPath, err = flags.GetString("report") })
	set("similarity-threshold", func() { cfg.SimilarityThreshold, err = flags.GetFloat64("similarity-threshold") })
	set("instruction-threshold", func() { cfg.InstructionThreshold, err = flags.GetFloat64("instruction-threshold") })
	set("dry-run", func() { cfg.DryRun, err = flags.GetBool("dry-run") })
	set("history-db", func() { cfg.HistoryDB, err = flags.GetString("history-db") })
	set("term-rules", func() { cfg.TermRulesPath, err = flags.GetString("term-rules") })
	return err
}

func printRunSummary(w io.Writer, cfg config.RunConfig, s *pipeline.Summary) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan("=== Before cleaning ==="))
	s.Before.Print(w)
	fmt.Fprintf(w, "\n%s\n", cyan("=== After cleaning ==="))
	s.After.Print(w)

	result := s.Result
	fmt.Fprintf(w, "\n%s\n", cyan("=== Summary ==="))
	fmt.Fprintf(w, "  Original items:   %d\n", result.Total)
	fmt.Fprintf(w, "  Removed:          %s\n", yellow(result.RemovedCount()))
	fmt.Fprintf(w, "    low quality:      %d\n", result.Stats.LowQualityCount)
	fmt.Fprintf(w, "    exact duplicates: %d\n", result.Stats.ExactDuplicateCount)
	fmt.Fprintf(w, "    near duplicates:  %d\n", result.Stats.NearDuplicateCount)
	fmt.Fprintf(w, "  Remaining:        %s\n", green(result.KeptCount()))
	fmt.Fprintf(w, "  Retention rate:   %.1f%%\n", result.RetentionRate())
	if s.SkippedLines > 0 {
		fmt.Fprintf(w, "  Skipped lines:    %s\n", yellow(s.SkippedLines))
	}
	fmt.Fprintln(w)

	if s.OutputWritten {
		fmt.Fprintf(w, "%s Cleaned corpus: %s\n", green("✓"), cfg.OutputPath)
	} else {
		fmt.Fprintf(w, "%s\n", yellow("DRY RUN - cleaned corpus not written"))
	}
	fmt.Fprintf(w, "%s Removal report: %s\n", green("✓"), s.ReportPath)
	if s.HistoryRecorded {
		fmt.Fprintf(w, "%s Run %s recorded in %s\n", green("✓"), s.RunID, cfg.HistoryDB)
	}
	fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("Time taken: %s", s.Duration.Round(time.Millisecond))))
}
