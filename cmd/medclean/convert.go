package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OliseNS/FinetuneGemma/internal/convert"
	"github.com/OliseNS/FinetuneGemma/internal/dataset"
	"github.com/OliseNS/FinetuneGemma/internal/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the raw CSV dataset into JSONL training files",
	Long:  `Commands for turning the prompt/completion CSV into fine-tuning formats.`,
}

var convertFlatCmd = &cobra.Command{
	Use:   "flat",
	Short: "Write shuffled prompt/completion train and validation files",
	Long: `Read the CSV, shuffle it with a fixed seed and hold out a validation split.
Each line is {"prompt": "<prompt> ", "completion": "<completion>"}.

Examples:
  medclean convert flat --csv dataset.csv
  medclean convert flat --csv dataset.csv --validation-fraction 0.2 --seed 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		trainPath, _ := cmd.Flags().GetString("train")
		validationPath, _ := cmd.Flags().GetString("validation")
		fraction, _ := cmd.Flags().GetFloat64("validation-fraction")
		seed, _ := cmd.Flags().GetUint64("seed")

		rows, err := convert.ReadRowsFile(csvPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded CSV rows", zap.String("path", csvPath), zap.Int("rows", len(rows)))

		records := convert.ToFlat(rows)
		convert.Shuffle(records, seed)
		train, validation, err := convert.Split(records, fraction)
		if err != nil {
			return err
		}

		if err := dataset.WriteJSONL(trainPath, train); err != nil {
			return err
		}
		if err := dataset.WriteJSONL(validationPath, validation); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(out, "%s Training:   %d records -> %s\n", green("✓"), len(train), trainPath)
		fmt.Fprintf(out, "%s Validation: %d records -> %s\n", green("✓"), len(validation), validationPath)
		return nil
	},
}

var convertAlpacaCmd = &cobra.Command{
	Use:   "alpaca",
	Short: "Write shuffled instruction/input/output records",
	Long: `Read the CSV and write Alpaca-style records. The optional age_group,
audience_type and tags columns become the input, e.g.
"Age group: adult. Audience: layperson. Topic areas: diet".

Examples:
  medclean convert alpaca
  medclean convert alpaca --csv data/dataset.csv --out data/train.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		outPath, _ := cmd.Flags().GetString("out")
		seed, _ := cmd.Flags().GetUint64("seed")

		rows, err := convert.ReadRowsFile(csvPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded CSV rows", zap.String("path", csvPath), zap.Int("rows", len(rows)))

		records := convert.ToAlpaca(rows)
		convert.Shuffle(records, seed)
		if err := dataset.Save(outPath, records); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %d records -> %s\n", color.GreenString("✓"), len(records), outPath)
		if len(records) > 0 {
			printSample(out, records[0])
		}
		return nil
	},
}

// printSample shows the head of one record.
func printSample(w io.Writer, r types.Record) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "\n%s\n", yellow("Sample record:"))
	fmt.Fprintf(w, "  Instruction: %s\n", types.Truncate(r.Instruction, 100))
	fmt.Fprintf(w, "  Input:       %s\n", r.Input)
	fmt.Fprintf(w, "  Output:      %s\n", types.Truncate(r.Output, 100))
}

func init() {
	convertFlatCmd.Flags().String("csv", "dataset.csv", "Input CSV with prompt and completion columns")
	convertFlatCmd.Flags().String("train", "train.jsonl", "Training output")
	convertFlatCmd.Flags().String("validation", "validation.jsonl", "Validation output")
	convertFlatCmd.Flags().Float64("validation-fraction", convert.DefaultValidationFraction, "Share of rows held out for validation")
	convertFlatCmd.Flags().Uint64("seed", convert.DefaultSeed, "Shuffle seed")

	convertAlpacaCmd.Flags().String("csv", "data/dataset.csv", "Input CSV with prompt and completion columns")
	convertAlpacaCmd.Flags().String("out", "train.jsonl", "JSONL output")
	convertAlpacaCmd.Flags().Uint64("seed", convert.DefaultSeed, "Shuffle seed")

	convertCmd.AddCommand(convertFlatCmd)
	convertCmd.AddCommand(convertAlpacaCmd)
	rootCmd.AddCommand(convertCmd)
}
