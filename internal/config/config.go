// =============================================================================
// Receivables Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration: where the three source exports live, how to read them, the
// business rules of the reconciliation, and where the ledger is written.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. Main config file (config.yaml)
//   3. .env file (loaded with godotenv, never overrides real env vars)
//   4. RECONCILER_* environment variables
//
// ARCHITECTURE:
//   - LoadMainConfig reads, unmarshals, applies defaults and env overrides,
//     then validates with go-playground/validator struct tags.
//   - Default() returns the same configuration without a file, so the CLI
//     works with only --invoices/--collections/--clients flags.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECONCILER_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for the three source exports.
	// Default: "./input"
	InputDir string `yaml:"input_dir" validate:"required"`

	// OutputDir receives the ledger files and the run summary.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" validate:"required"`

	// InputArchiveDir receives source files after a successful run
	// (only when archiving is requested).
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" validate:"required"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the log file. Empty logs to stdout.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the logrus formatter: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Output controls ledger export.
	Output OutputSettings `yaml:"output"`

	// =========================================================================
	// SOURCES
	// =========================================================================

	// Sources describes how each of the three exports is located and read.
	Sources Sources `yaml:"sources"`

	// =========================================================================
	// BUSINESS RULES
	// =========================================================================

	// Rules holds the reconciliation rules.
	Rules Rules `yaml:"rules"`
}

// OutputSettings controls the written ledger.
type OutputSettings struct {
	// Formats lists the files to write per run: "xlsx", "csv".
	// Default: ["xlsx"]
	Formats []string `yaml:"formats" validate:"min=1,dive,oneof=xlsx csv"`

	// NameFormat defines the output file name without extension.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Reference date of the run (YYYYMMDD)
	// Default: "cartera_{date}_{uuid}"
	NameFormat string `yaml:"name_format" validate:"required"`

	// WriteSummary writes a plain-text run summary next to the ledger.
	// Default: true
	WriteSummary *bool `yaml:"write_summary"`
}

// Sources groups the three dataset settings.
type Sources struct {
	Invoices    SourceSettings `yaml:"invoices"`
	Collections SourceSettings `yaml:"collections"`
	Clients     SourceSettings `yaml:"clients"`
}

// SourceSettings describes one tabular input.
type SourceSettings struct {
	// Pattern is a glob matched against file names in InputDir.
	// Examples: "cartera*.xlsx", "cobranzas*.csv"
	Pattern string `yaml:"pattern" validate:"required"`

	// Sheet selects a worksheet by name for XLSX/XLS files.
	// Empty selects the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding column headers.
	// Default: 1
	HeaderRow int `yaml:"header_row" validate:"gte=1"`

	// Delimiter is the CSV field separator.
	// Common values: "," (comma), ";" (semicolon), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the CSV character encoding.
	// Valid values: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// Rules holds every constant of the reconciliation business logic.
type Rules struct {
	// WithholdingThreshold is the billed amount above which the fallback
	// withholding applies (strictly greater than).
	// Default: 700
	WithholdingThreshold float64 `yaml:"withholding_threshold" validate:"gte=0"`

	// WithholdingRate is the fallback withholding rate.
	// Default: 0.12
	WithholdingRate float64 `yaml:"withholding_rate" validate:"gt=0,lt=1"`

	// WithholdingMethod is the collection payment-method code that marks a
	// withholding deposit.
	// Default: "DT"
	WithholdingMethod string `yaml:"withholding_method" validate:"required"`

	// AmortizationExcludedMethods are payment methods left out of the
	// amortizations text.
	// Default: ["DT", "DET"]
	AmortizationExcludedMethods []string `yaml:"amortization_excluded_methods"`

	// ExcludedOrderTypes are order-type codes dropped before the merge.
	// Default: ["PAV"]
	ExcludedOrderTypes []string `yaml:"excluded_order_types"`

	// DollarCurrencies are currency codes denominated in dollars.
	// Default: ["USD", "US$", "02", "D"]
	DollarCurrencies []string `yaml:"dollar_currencies" validate:"min=1"`

	// KeyMode selects the match-key normalizer: "strict" or "loose".
	// Default: "strict"
	KeyMode string `yaml:"key_mode" validate:"oneof=strict loose"`

	// EmailHeaders are the accepted email column headers, checked in order.
	// Default: ["EMAIL", "CORREO", "E-MAIL", "CORREO_ELECTRONICO", "MAIL"]
	EmailHeaders []string `yaml:"email_headers" validate:"min=1"`

	// RecordSeparator joins collection detail blocks.
	// Default: "\n"
	RecordSeparator string `yaml:"record_separator"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no config file exists.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     is not an error when allowMissing is true; defaults are used instead.
//
// RETURNS:
//   - A pointer to the validated MainConfig.
//   - An error if the file cannot be read, parsed, or fails validation.
func LoadMainConfig(configPath string, allowMissing bool) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && allowMissing:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	applyMainConfigDefaults(&config)
	applyEnvOverrides(&config)

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}

	// Output defaults.
	if len(config.Output.Formats) == 0 {
		config.Output.Formats = []string{"xlsx"}
	}
	if config.Output.NameFormat == "" {
		config.Output.NameFormat = "cartera_{date}_{uuid}"
	}
	if config.Output.WriteSummary == nil {
		t := true
		config.Output.WriteSummary = &t
	}

	// Source defaults.
	applySourceDefaults(&config.Sources.Invoices, "cartera*")
	applySourceDefaults(&config.Sources.Collections, "cobranza*")
	applySourceDefaults(&config.Sources.Clients, "clientes*")

	// Rule defaults.
	r := &config.Rules
	if r.WithholdingThreshold == 0 {
		r.WithholdingThreshold = 700
	}
	if r.WithholdingRate == 0 {
		r.WithholdingRate = 0.12
	}
	if r.WithholdingMethod == "" {
		r.WithholdingMethod = "DT"
	}
	if r.AmortizationExcludedMethods == nil {
		r.AmortizationExcludedMethods = []string{"DT", "DET"}
	}
	if r.ExcludedOrderTypes == nil {
		r.ExcludedOrderTypes = []string{"PAV"}
	}
	if len(r.DollarCurrencies) == 0 {
		r.DollarCurrencies = []string{"USD", "US$", "02", "D"}
	}
	if r.KeyMode == "" {
		r.KeyMode = "strict"
	}
	if len(r.EmailHeaders) == 0 {
		r.EmailHeaders = []string{"EMAIL", "CORREO", "E-MAIL", "CORREO_ELECTRONICO", "MAIL"}
	}
	if r.RecordSeparator == "" {
		r.RecordSeparator = "\n"
	}
}

// applySourceDefaults sets default values for one source.
func applySourceDefaults(s *SourceSettings, pattern string) {
	if s.Pattern == "" {
		s.Pattern = pattern
	}
	if s.HeaderRow == 0 {
		s.HeaderRow = 1
	}
	if s.Delimiter == "" {
		s.Delimiter = ","
	}
	if s.Encoding == "" {
		s.Encoding = "UTF-8"
	}
}

// applyEnvOverrides copies RECONCILER_* variables over file values.
//
// SUPPORTED VARIABLES:
//   RECONCILER_INPUT_DIR, RECONCILER_OUTPUT_DIR, RECONCILER_INPUT_ARCHIVE_DIR,
//   RECONCILER_LOG_FILE, RECONCILER_LOG_LEVEL, RECONCILER_LOG_FORMAT,
//   RECONCILER_KEY_MODE
func applyEnvOverrides(config *MainConfig) {
	overrides := map[string]*string{
		"INPUT_DIR":         &config.InputDir,
		"OUTPUT_DIR":        &config.OutputDir,
		"INPUT_ARCHIVE_DIR": &config.InputArchiveDir,
		"LOG_FILE":          &config.LogFile,
		"LOG_LEVEL":         &config.LogLevel,
		"LOG_FORMAT":        &config.LogFormat,
		"KEY_MODE":          &config.Rules.KeyMode,
	}

	for name, target := range overrides {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
}

// Validate checks the configuration against its struct tags.
func Validate(config *MainConfig) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// EnsureDirectories creates the output and archive directories.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.OutputDir, c.InputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// IsDollar reports whether code is one of the configured dollar currencies.
func (r Rules) IsDollar(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range r.DollarCurrencies {
		if strings.ToUpper(strings.TrimSpace(c)) == code {
			return true
		}
	}
	return false
}
