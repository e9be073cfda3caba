package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OliseNS/FinetuneGemma/internal/dataset"
	"github.com/OliseNS/FinetuneGemma/internal/terms"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print statistics about a JSONL corpus",
	Long: `Count instruction-only and with-input records, average field lengths and
how many records carry medical vocabulary.

Examples:
  medclean analyze --file data/train_unique.jsonl
  medclean analyze --file data/train.jsonl --term-rules terms.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		rulesPath, _ := cmd.Flags().GetString("term-rules")

		extractor := terms.Default()
		if rulesPath != "" {
			rules, err := terms.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			if extractor, err = terms.NewExtractor(rules); err != nil {
				return err
			}
		}

		loaded, err := dataset.NewLoader(eventSink(loggerFormat, cmd.ErrOrStderr()), "").Load(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", color.New(color.FgCyan, color.Bold).Sprintf("=== %s ===", path))
		dataset.Analyze(loaded.Records, extractor).Print(out)
		if loaded.SkippedLines > 0 {
			fmt.Fprintf(out, "%s\n", color.YellowString("Skipped %d malformed lines", loaded.SkippedLines))
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().String("file", "data/train.jsonl", "JSONL corpus to analyze")
	analyzeCmd.Flags().String("term-rules", "", "YAML file overriding the medical term rules")
	rootCmd.AddCommand(analyzeCmd)
}
