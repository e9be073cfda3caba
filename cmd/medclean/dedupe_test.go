package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OliseNS/FinetuneGemma/internal/config"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("input", "", "")
	cmd.Flags().String("output", "", "")
	cmd.Flags().String("report", "", "")
	cmd.Flags().Float64("similarity-threshold", 0.5, "")
	cmd.Flags().Float64("instruction-threshold", 0.7, "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().String("history-db", "", "")
	cmd.Flags().String("term-rules", "", "")
	cmd.Flags().String("base-dir", "", "")
	cmd.Flags().String("log-format", "", "")
	return cmd
}

func TestApplyRunFlagsOnlyChanged(t *testing.T) {
	cmd := newFlagCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--similarity-threshold", "0.9", "--dry-run", "--input", "in.jsonl"}))

	cfg := config.DefaultRunConfig()
	cfg.OutputPath = "from-file.jsonl"
	cfg.InstructionThreshold = 0.6
	require.NoError(t, applyRunFlags(cmd, &cfg))

	assert.InDelta(t, 0.9, cfg.SimilarityThreshold, 1e-9)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "in.jsonl", cfg.InputPath)
	assert.Equal(t, "from-file.jsonl", cfg.OutputPath, "unset flags keep lower layers")
	assert.InDelta(t, 0.6, cfg.InstructionThreshold, 1e-9, "flag defaults do not override")
}

func TestDedupeCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	corpus := `{"instruction": "What foods are high in potassium?", "input": "", "output": "Bananas and potatoes are high in potassium."}
{"instruction": "What foods are high in potassium?", "input": "", "output": "Bananas and potatoes are high in potassium."}
{"instruction": "Why", "input": "", "output": "Because the kidneys filter waste from the blood."}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "train.jsonl"), []byte(corpus), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"dedupe", "--base-dir", dir, "--history-db", filepath.Join(dir, "history.db")})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Retention rate:   33.3%")
	assert.Contains(t, out.String(), "recorded in")

	cleaned, err := os.ReadFile(filepath.Join(dir, "data", "train_unique.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(cleaned, []byte("\n")))

	_, err = os.Stat(filepath.Join(dir, "reports", "removal_report.md"))
	assert.NoError(t, err)
}

func TestDedupeCommandWithoutRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "train.jsonl"), []byte("not json\n"), 0o644))
	previous := []byte(`{"instruction":"What is PD?","input":"","output":"Dialysis."}` + "\n")
	outputPath := filepath.Join(dir, "data", "train_unique.jsonl")
	require.NoError(t, os.WriteFile(outputPath, previous, 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"dedupe", "--base-dir", dir, "--history-db", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute(), "an empty corpus is not a failure")

	kept, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, previous, kept)
	assert.NotContains(t, out.String(), "Retention rate")
}
