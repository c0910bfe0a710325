// =============================================================================
// Trade Reconciliation - Configuration Module
// =============================================================================
//
// This module loads the run configuration.
//
// LOAD ORDER (later sources override earlier ones):
//   1. Built-in defaults
//   2. The YAML config file (config.yaml)
//   3. A .env file, if present (variables already set in the process win)
//   4. RECON_* environment variables
//
// ENVIRONMENT VARIABLES:
//   RECON_READ_SYMBOLS_REF_FILE            RECON_WRITE_CLEANED_TRADES_FILE
//   RECON_READ_FILLS_FILE                  RECON_WRITE_EXCEPTIONS_REPORT_FILE
//   RECON_READ_TRADES_FILE                 RECON_WRITE_SUMMARY_WORKBOOK
//   RECON_VALIDATION_PRICE_DISCREPANCY_THRESHOLD
//   RECON_LOG_LEVEL   RECON_LOG_FORMAT     RECON_METRICS_TEXTFILE
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/trade-reconciliation/internal/logging"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECON_"

// DefaultEnvFile is the dotenv file read by Load.
const DefaultEnvFile = ".env"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the settings of a reconciliation run.
type Config struct {
	Read       ReadConfig       `yaml:"read" envPrefix:"READ_"`
	Write      WriteConfig      `yaml:"write" envPrefix:"WRITE_"`
	Validation ValidationConfig `yaml:"validation" envPrefix:"VALIDATION_"`
	Logging    LoggingConfig    `yaml:"logging" envPrefix:"LOG_"`
	Metrics    MetricsConfig    `yaml:"metrics" envPrefix:"METRICS_"`

	threshold decimal.Decimal
}

// ReadConfig lists the input files. Files ending in .xlsx are read from
// their first sheet; anything else is read as CSV.
type ReadConfig struct {
	SymbolsRefFile string `yaml:"symbols_ref_file" env:"SYMBOLS_REF_FILE"`
	FillsFile      string `yaml:"fills_file" env:"FILLS_FILE"`
	TradesFile     string `yaml:"trades_file" env:"TRADES_FILE"`
}

// WriteConfig lists the output files. Parent directories are created.
type WriteConfig struct {
	CleanedTradesFile    string `yaml:"cleaned_trades_file" env:"CLEANED_TRADES_FILE"`
	ExceptionsReportFile string `yaml:"exceptions_report_file" env:"EXCEPTIONS_REPORT_FILE"`

	// SummaryWorkbook is an optional XLSX run summary. Empty disables it.
	SummaryWorkbook string `yaml:"summary_workbook" env:"SUMMARY_WORKBOOK"`
}

// ValidationConfig holds the reconciliation tolerances.
type ValidationConfig struct {
	// PriceDiscrepancyThreshold is the largest absolute price difference
	// between a trade and its fill that is not flagged. Kept as text so the
	// value is never routed through a float.
	// Default: "0.01"
	PriceDiscrepancyThreshold string `yaml:"price_discrepancy_threshold" env:"PRICE_DISCREPANCY_THRESHOLD"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is "console" or "json". Default: "console"
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig controls the metrics export.
type MetricsConfig struct {
	// Textfile is an optional Prometheus textfile path. Empty disables it.
	Textfile string `yaml:"textfile" env:"TEXTFILE"`
}

// Threshold returns the parsed price discrepancy threshold.
func (c *Config) Threshold() decimal.Decimal {
	return c.threshold
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns a configuration holding only the built-in defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration from configPath, the .env file in the
// working directory and the environment.
func Load(configPath string) (*Config, error) {
	return LoadWithEnvFile(configPath, DefaultEnvFile)
}

// LoadWithEnvFile is Load with an explicit dotenv file.
//
// PARAMETERS:
//   - configPath: The path to the YAML configuration file.
//   - envFile: A dotenv file to load if it exists. Empty skips it.
//
// RETURNS:
//   - The validated configuration.
//   - An error if a source cannot be read, or one wrapping ErrInvalidConfig.
func LoadWithEnvFile(configPath, envFile string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.Validation.PriceDiscrepancyThreshold == "" {
		cfg.Validation.PriceDiscrepancyThreshold = "0.01"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = logging.FormatConsole
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks every setting and reports all problems at once.
// It also parses the threshold returned by Threshold.
func (c *Config) Validate() error {
	var errs []error

	inputs := []struct{ key, path string }{
		{"read.symbols_ref_file", c.Read.SymbolsRefFile},
		{"read.fills_file", c.Read.FillsFile},
		{"read.trades_file", c.Read.TradesFile},
	}
	for _, in := range inputs {
		if err := checkInputFile(in.key, in.path); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Write.CleanedTradesFile == "" {
		errs = append(errs, errors.New("write.cleaned_trades_file is required"))
	}
	if c.Write.ExceptionsReportFile == "" {
		errs = append(errs, errors.New("write.exceptions_report_file is required"))
	}

	threshold, err := decimal.NewFromString(strings.TrimSpace(c.Validation.PriceDiscrepancyThreshold))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("validation.price_discrepancy_threshold %q is not a decimal", c.Validation.PriceDiscrepancyThreshold))
	case threshold.IsNegative():
		errs = append(errs, fmt.Errorf("validation.price_discrepancy_threshold %q must not be negative", c.Validation.PriceDiscrepancyThreshold))
	default:
		c.threshold = threshold
	}

	if !contains(logging.Levels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("logging.level %q must be one of %s", c.Logging.Level, strings.Join(logging.Levels, ", ")))
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be %s or %s", c.Logging.Format, logging.FormatConsole, logging.FormatJSON))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, multierr.Combine(errs...))
	}
	return nil
}

func checkInputFile(key, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", key)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %s is not a regular file", key, path)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
