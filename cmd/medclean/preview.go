package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/OliseNS/FinetuneGemma/internal/convert"
	"github.com/OliseNS/FinetuneGemma/internal/dataset"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render records in the Alpaca prompt template",
	Long: `Print how records of a JSONL corpus look once rendered into the Alpaca
training template.

Examples:
  medclean preview --file train.jsonl
  medclean preview --file train.jsonl --count 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		count, _ := cmd.Flags().GetInt("count")

		loaded, err := dataset.NewLoader(eventSink(loggerFormat, cmd.ErrOrStderr()), "").Load(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		if len(loaded.Records) == 0 {
			fmt.Fprintf(out, "%s has no records\n", path)
			return nil
		}
		for i, record := range loaded.Records {
			if i >= count {
				break
			}
			fmt.Fprintf(out, "%s\n%s\n\n", cyan(fmt.Sprintf("=== Record %d ===", i)), convert.AlpacaPrompt(record))
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().String("file", "train.jsonl", "JSONL corpus to preview")
	previewCmd.Flags().Int("count", 1, "Number of records to render")
	rootCmd.AddCommand(previewCmd)
}
