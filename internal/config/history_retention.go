package config

import "fmt"

// HistoryRetentionConfig controls pruning of the run history ledger
type HistoryRetentionConfig struct {
	// RetentionDays is how long a run is kept (in days)
	// Runs older than this are eligible for deletion
	// Default: 90, Range: 1-3650
	RetentionDays int

	// MaxRuns caps the number of runs kept, newest first
	// Set to 0 for unlimited
	// Default: 200, Range: 0 or 1-100000
	MaxRuns int

	// Vacuum controls whether to run VACUUM after pruning
	// Default: false
	Vacuum bool
}

// DefaultHistoryRetentionConfig returns the default history retention configuration
func DefaultHistoryRetentionConfig() HistoryRetentionConfig {
	return HistoryRetentionConfig{
		RetentionDays: 90,
		MaxRuns:       200,
		Vacuum:        false,
	}
}

// Validate checks if the configuration has valid values
func (c HistoryRetentionConfig) Validate() error {
	if c.RetentionDays < 1 || c.RetentionDays > 3650 {
		return fmt.Errorf("retention_days must be between 1 and 3650 (got %d)", c.RetentionDays)
	}
	if c.MaxRuns < 0 {
		return fmt.Errorf("max_runs cannot be negative (got %d)", c.MaxRuns)
	}
	if c.MaxRuns > 100000 {
		return fmt.Errorf("max_runs too large (got %d, max 100000)", c.MaxRuns)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c HistoryRetentionConfig) String() string {
	return fmt.Sprintf("HistoryRetentionConfig{RetentionDays: %d, MaxRuns: %d, Vacuum: %t}",
		c.RetentionDays, c.MaxRuns, c.Vacuum)
}

// HistoryRetentionConfigFromEnv creates a HistoryRetentionConfig from environment
// variables, falling back to defaults
//
// Environment variables:
//   - MEDCLEAN_HISTORY_RETENTION_DAYS: Retention period in days (default: 90)
//   - MEDCLEAN_HISTORY_MAX_RUNS: Maximum runs kept, 0 for unlimited (default: 200)
//   - MEDCLEAN_HISTORY_VACUUM: Run VACUUM after pruning (default: false)
//
// Returns an error if any environment variable has an invalid value.
func HistoryRetentionConfigFromEnv() (HistoryRetentionConfig, error) {
	cfg := DefaultHistoryRetentionConfig()

	if err := parseEnvInt("MEDCLEAN_HISTORY_RETENTION_DAYS", &cfg.RetentionDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("MEDCLEAN_HISTORY_MAX_RUNS", &cfg.MaxRuns); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("MEDCLEAN_HISTORY_VACUUM", &cfg.Vacuum); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid history retention configuration from environment: %w", err)
	}
	return cfg, nil
}
