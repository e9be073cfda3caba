package deduplication

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for the deduplication engine
type Config struct {
	// SimilarityThreshold is the minimum overall similarity (0.0-1.0) of two
	// records' full text for them to count as near-duplicates
	// Higher values = more conservative (fewer removals)
	// Default: 0.50
	SimilarityThreshold float64

	// InstructionThreshold is the minimum similarity (0.0-1.0) of the two
	// instructions. Both thresholds must be met.
	// Default: 0.70
	InstructionThreshold float64

	// MaxLoggedLowQuality is how many quality gate rejections are reported
	// at info severity; the rest are emitted at debug
	// Default: 10
	MaxLoggedLowQuality int

	// MaxLoggedPairs is how many near-duplicate pairs are reported at info
	// severity; the rest are emitted at debug and counted in a summary
	// Default: 5
	MaxLoggedPairs int
}

// DefaultConfig returns the default deduplication configuration
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:  0.50,
		InstructionThreshold: 0.70,
		MaxLoggedLowQuality:  10,
		MaxLoggedPairs:       5,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	// Written so that NaN fails too.
	if !(c.SimilarityThreshold >= 0.0 && c.SimilarityThreshold <= 1.0) {
		return fmt.Errorf("similarity_threshold must be between 0.0 and 1.0 (got %.2f)",
			c.SimilarityThreshold)
	}
	if !(c.InstructionThreshold >= 0.0 && c.InstructionThreshold <= 1.0) {
		return fmt.Errorf("instruction_threshold must be between 0.0 and 1.0 (got %.2f)",
			c.InstructionThreshold)
	}
	if c.MaxLoggedLowQuality < 0 {
		return fmt.Errorf("max_logged_low_quality cannot be negative (got %d)", c.MaxLoggedLowQuality)
	}
	if c.MaxLoggedPairs < 0 {
		return fmt.Errorf("max_logged_pairs cannot be negative (got %d)", c.MaxLoggedPairs)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Threshold: %.2f, InstructionThreshold: %.2f, MaxLoggedLowQuality: %d, MaxLoggedPairs: %d}",
		c.SimilarityThreshold, c.InstructionThreshold, c.MaxLoggedLowQuality, c.MaxLoggedPairs,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - MEDCLEAN_SIMILARITY_THRESHOLD: Minimum overall similarity (0.0-1.0) (default: 0.50)
//   - MEDCLEAN_INSTRUCTION_THRESHOLD: Minimum instruction similarity (0.0-1.0) (default: 0.70)
//   - MEDCLEAN_MAX_LOGGED_LOW_QUALITY: Rejections reported at info severity (default: 10)
//   - MEDCLEAN_MAX_LOGGED_PAIRS: Near-duplicate pairs reported at info severity (default: 5)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields of cfg from MEDCLEAN_* environment variables.
// It does not validate the result.
func ApplyEnv(cfg *Config) error {
	if err := parseEnvFloat("MEDCLEAN_SIMILARITY_THRESHOLD", &cfg.SimilarityThreshold); err != nil {
		return err
	}
	if err := parseEnvFloat("MEDCLEAN_INSTRUCTION_THRESHOLD", &cfg.InstructionThreshold); err != nil {
		return err
	}
	if err := parseEnvInt("MEDCLEAN_MAX_LOGGED_LOW_QUALITY", &cfg.MaxLoggedLowQuality); err != nil {
		return err
	}
	if err := parseEnvInt("MEDCLEAN_MAX_LOGGED_PAIRS", &cfg.MaxLoggedPairs); err != nil {
		return err
	}
	return nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
