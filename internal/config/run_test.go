package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.Equal(t, filepath.Join("data", "train.jsonl"), cfg.InputPath)
	assert.Equal(t, filepath.Join("data", "train_unique.jsonl"), cfg.OutputPath)
	assert.Equal(t, filepath.Join("reports", "removal_report.md"), cfg.ReportPath)
	assert.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-9)
	assert.InDelta(t, 0.7, cfg.InstructionThreshold, 1e-9)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
	assert.NoError(t, cfg.Validate())
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	yamlBody := "input: corpus/in.jsonl\nsimilarity_threshold: 0.8\ndry_run: true\nlog_format: json\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte(yamlBody), 0o644))

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load("", dir)
		require.NoError(t, err)
		assert.Equal(t, "corpus/in.jsonl", cfg.InputPath)
		assert.InDelta(t, 0.8, cfg.SimilarityThreshold, 1e-9)
		assert.True(t, cfg.DryRun)
		assert.Equal(t, LogFormatJSON, cfg.LogFormat)
		assert.Equal(t, filepath.Join("data", "train_unique.jsonl"), cfg.OutputPath, "unset keys keep defaults")
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("MEDCLEAN_SIMILARITY_THRESHOLD", "0.65")
		t.Setenv("MEDCLEAN_OUTPUT", "out.jsonl")
		t.Setenv("MEDCLEAN_MAX_LOGGED_PAIRS", "3")
		cfg, err := Load("", dir)
		require.NoError(t, err)
		assert.InDelta(t, 0.65, cfg.SimilarityThreshold, 1e-9)
		assert.Equal(t, "out.jsonl", cfg.OutputPath)
		assert.Equal(t, 3, cfg.MaxLoggedPairs)
		assert.Equal(t, 3, cfg.DedupConfig().MaxLoggedPairs)
	})

	t.Run("invalid env", func(t *testing.T) {
		t.Setenv("MEDCLEAN_DRY_RUN", "maybe")
		_, err := Load("", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEDCLEAN_DRY_RUN")
	})
}

func TestLoadExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [unclosed"), 0o644))
	_, err = Load(path, "")
	assert.Error(t, err)
}

func TestLoadFindsConfigInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFileName), []byte("input: custom.jsonl\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "custom.jsonl", cfg.InputPath)
	assert.Empty(t, cfg.BaseDir, "base dir stays unset so Resolve uses the working directory")

	require.NoError(t, cfg.Resolve())
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "custom.jsonl"), cfg.InputPath)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultRunConfig().InputPath, cfg.InputPath)
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(base, "elsewhere", "report.md")
	cfg := DefaultRunConfig()
	cfg.BaseDir = base
	cfg.ReportPath = abs
	require.NoError(t, cfg.Resolve())

	assert.Equal(t, filepath.Join(base, "data", "train.jsonl"), cfg.InputPath)
	assert.Equal(t, abs, cfg.ReportPath)
	assert.Empty(t, cfg.HistoryDB, "empty paths stay empty")
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RunConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *RunConfig) {}},
		{name: "no input", mutate: func(c *RunConfig) { c.InputPath = " " }, wantErr: "input path"},
		{name: "no report", mutate: func(c *RunConfig) { c.ReportPath = "" }, wantErr: "report path"},
		{name: "no output", mutate: func(c *RunConfig) { c.OutputPath = "" }, wantErr: "output path"},
		{name: "dry run needs no output", mutate: func(c *RunConfig) { c.OutputPath = ""; c.DryRun = true }},
		{name: "bad log format", mutate: func(c *RunConfig) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "threshold out of range", mutate: func(c *RunConfig) { c.SimilarityThreshold = 1.5 }, wantErr: "threshold"},
		{name: "NaN threshold", mutate: func(c *RunConfig) { c.SimilarityThreshold = math.NaN() }, wantErr: "similarity_threshold"},
		{name: "NaN instruction threshold", mutate: func(c *RunConfig) { c.InstructionThreshold = math.NaN() }, wantErr: "instruction_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
