package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OliseNS/FinetuneGemma/internal/deduplication"
)

// DefaultConfigFileName is looked up in the base directory when no config
// file is given explicitly.
const DefaultConfigFileName = ".medclean.yaml"

// Log formats accepted by RunConfig.LogFormat.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// RunConfig holds the parameters of one cleaning run
type RunConfig struct {
	// BaseDir anchors relative paths. Default: current directory
	BaseDir string

	// InputPath is the JSONL corpus to clean
	// Default: data/train.jsonl
	InputPath string

	// OutputPath receives the cleaned corpus
	// Default: data/train_unique.jsonl
	OutputPath string

	// ReportPath receives the Markdown removal report
	// Default: reports/removal_report.md
	ReportPath string

	// SimilarityThreshold and InstructionThreshold feed the engine
	SimilarityThreshold  float64
	InstructionThreshold float64

	// MaxLoggedLowQuality and MaxLoggedPairs cap info-level removal events
	MaxLoggedLowQuality int
	MaxLoggedPairs      int

	// DryRun detects and reports but does not write the cleaned corpus
	DryRun bool

	// HistoryDB is the run ledger path; empty disables the ledger
	HistoryDB string

	// TermRulesPath is an optional YAML term rule file
	TermRulesPath string

	// LogFormat is "console" (colored) or "json" (zap)
	LogFormat string
}

// DefaultRunConfig returns the default run configuration
func DefaultRunConfig() RunConfig {
	dedup := deduplication.DefaultConfig()
	return RunConfig{
		InputPath:            filepath.Join("data", "train.jsonl"),
		OutputPath:           filepath.Join("data", "train_unique.jsonl"),
		ReportPath:           filepath.Join("reports", "removal_report.md"),
		SimilarityThreshold:  dedup.SimilarityThreshold,
		InstructionThreshold: dedup.InstructionThreshold,
		MaxLoggedLowQuality:  dedup.MaxLoggedLowQuality,
		MaxLoggedPairs:       dedup.MaxLoggedPairs,
		LogFormat:            LogFormatConsole,
	}
}

// FileConfig is the YAML layout of a run config file. Absent keys leave
// the current value untouched.
type FileConfig struct {
	BaseDir              *string  `yaml:"base_dir"`
	Input                *string  `yaml:"input"`
	Output               *string  `yaml:"output"`
	Report               *string  `yaml:"report"`
	SimilarityThreshold  *float64 `yaml:"similarity_threshold"`
	InstructionThreshold *float64 `yaml:"instruction_threshold"`
	DryRun               *bool    `yaml:"dry_run"`
	HistoryDB            *string  `yaml:"history_db"`
	TermRules            *string  `yaml:"term_rules"`
	LogFormat            *string  `yaml:"log_format"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

// ApplyFile layers the set keys of fc over c.
func (c *RunConfig) ApplyFile(fc *FileConfig) {
	if fc == nil {
		return
	}
	setString(&c.BaseDir, fc.BaseDir)
	setString(&c.InputPath, fc.Input)
	setString(&c.OutputPath, fc.Output)
	setString(&c.ReportPath, fc.Report)
	setString(&c.HistoryDB, fc.HistoryDB)
	setString(&c.TermRulesPath, fc.TermRules)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.SimilarityThreshold != nil {
		c.SimilarityThreshold = *fc.SimilarityThreshold
	}
	if fc.InstructionThreshold != nil {
		c.InstructionThreshold = *fc.InstructionThreshold
	}
	if fc.DryRun != nil {
		c.DryRun = *fc.DryRun
	}
}

func setString(dest *string, value *string) {
	if value != nil {
		*dest = *value
	}
}

// ApplyEnv layers MEDCLEAN_* environment variables over c
//
// Environment variables:
//   - MEDCLEAN_BASE_DIR, MEDCLEAN_INPUT, MEDCLEAN_OUTPUT, MEDCLEAN_REPORT
//   - MEDCLEAN_SIMILARITY_THRESHOLD, MEDCLEAN_INSTRUCTION_THRESHOLD
//   - MEDCLEAN_DRY_RUN
//   - MEDCLEAN_HISTORY_DB, MEDCLEAN_TERM_RULES, MEDCLEAN_LOG_FORMAT
func (c *RunConfig) ApplyEnv() error {
	for key, dest := range map[string]*string{
		"MEDCLEAN_BASE_DIR":   &c.BaseDir,
		"MEDCLEAN_INPUT":      &c.InputPath,
		"MEDCLEAN_OUTPUT":     &c.OutputPath,
		"MEDCLEAN_REPORT":     &c.ReportPath,
		"MEDCLEAN_HISTORY_DB": &c.HistoryDB,
		"MEDCLEAN_TERM_RULES": &c.TermRulesPath,
		"MEDCLEAN_LOG_FORMAT": &c.LogFormat,
	} {
		if err := parseEnvString(key, dest); err != nil {
			return err
		}
	}
	if err := parseEnvBool("MEDCLEAN_DRY_RUN", &c.DryRun); err != nil {
		return err
	}

	dedup := c.DedupConfig()
	if err := deduplication.ApplyEnv(&dedup); err != nil {
		return err
	}
	c.SimilarityThreshold = dedup.SimilarityThreshold
	c.InstructionThreshold = dedup.InstructionThreshold
	c.MaxLoggedLowQuality = dedup.MaxLoggedLowQuality
	c.MaxLoggedPairs = dedup.MaxLoggedPairs
	return nil
}

// Load builds a RunConfig from defaults, then the config file, then the
// environment. An empty path falls back to DefaultConfigFileName in
// baseDir (the current directory when empty) when that file exists.
func Load(path, baseDir string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	cfg.BaseDir = baseDir

	if path == "" {
		dir := baseDir
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, DefaultConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
	}
	if path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.ApplyFile(fc)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Resolve makes every path absolute against BaseDir. An empty BaseDir is
// the current directory.
func (c *RunConfig) Resolve() error {
	base := c.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory %s: %w", c.BaseDir, err)
	}
	c.BaseDir = base

	for _, p := range []*string{&c.InputPath, &c.OutputPath, &c.ReportPath, &c.HistoryDB, &c.TermRulesPath} {
		*p = resolvePath(base, *p)
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// DedupConfig returns the engine configuration for this run.
func (c RunConfig) DedupConfig() deduplication.Config {
	return deduplication.Config{
		SimilarityThreshold:  c.SimilarityThreshold,
		InstructionThreshold: c.InstructionThreshold,
		MaxLoggedLowQuality:  c.MaxLoggedLowQuality,
		MaxLoggedPairs:       c.MaxLoggedPairs,
	}
}

// Validate checks if the configuration has valid values
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(c.ReportPath) == "" {
		return fmt.Errorf("report path is required")
	}
	if !c.DryRun && strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path is required unless dry_run is set")
	}
	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("log_format must be %q or %q (got %q)", LogFormatConsole, LogFormatJSON, c.LogFormat)
	}
	return c.DedupConfig().Validate()
}

// String returns a human-readable representation of the config
func (c RunConfig) String() string {
	return fmt.Sprintf(
		"RunConfig{Input: %s, Output: %s, Report: %s, Threshold: %.2f, InstructionThreshold: %.2f, DryRun: %t, HistoryDB: %s}",
		c.InputPath, c.OutputPath, c.ReportPath, c.SimilarityThreshold, c.InstructionThreshold, c.DryRun, c.HistoryDB,
	)
}
