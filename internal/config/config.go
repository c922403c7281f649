// =============================================================================
// Ledger Consolidation - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// CONFIGURATION SOURCES (later sources win):
//   1. Built-in defaults
//   2. The YAML file (consolidator.yaml, or --config)
//   3. Environment variables prefixed with CONSOLIDATOR_
//      (e.g. CONSOLIDATOR_API_BASE_URL, CONSOLIDATOR_VALIDATION_POLICY)
//
// The merged configuration is validated before use. A missing default
// config file is not an error; a missing explicitly named one is.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "consolidator.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONSOLIDATOR"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	API        APIConfig        `yaml:"api" split_words:"true"`
	Validation ValidationConfig `yaml:"validation" split_words:"true"`
	Submission SubmissionConfig `yaml:"submission" split_words:"true"`
	Log        LogConfig        `yaml:"log" split_words:"true"`
	Output     OutputConfig     `yaml:"output" split_words:"true"`
	Batch      BatchConfig      `yaml:"batch" split_words:"true"`
}

// APIConfig locates the backend.
type APIConfig struct {
	// BaseURL is the root of the REST backend.
	// Default: "http://localhost:5000"
	BaseURL string `yaml:"base_url" split_words:"true" validate:"required,url"`

	// Timeout bounds each request. Zero keeps the transport default.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token"`
}

// ValidationConfig selects the completeness policy.
type ValidationConfig struct {
	// Policy is "lenient" (skip rows with no ledger) or "strict".
	// Default: "lenient"
	Policy string `yaml:"policy" validate:"oneof=lenient strict"`
}

// SubmissionConfig controls what happens around a commit.
type SubmissionConfig struct {
	// ResetPolicy is "on_zero_failures" or "on_any_success".
	// Default: "on_zero_failures"
	ResetPolicy string `yaml:"reset_policy" split_words:"true" validate:"oneof=on_zero_failures on_any_success"`

	// CheckServerActive reads the active links before validating, so a
	// ledger that is already active on the server is rejected.
	// Default: true
	CheckServerActive *bool `yaml:"check_server_active" split_words:"true"`
}

// CheckActive reports the effective CheckServerActive value.
func (s SubmissionConfig) CheckActive() bool {
	return s.CheckServerActive == nil || *s.CheckServerActive
}

// LogConfig configures logrus.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// File receives the log in append mode. Empty means stderr for the
	// batch commands and no log at all for the interactive form.
	File string `yaml:"file"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `yaml:"format" validate:"oneof=text json"`
}

// OutputConfig configures reports and archival.
type OutputConfig struct {
	// ReportDir receives the XLSX commit report of each batch submission.
	// Empty disables the report.
	ReportDir string `yaml:"report_dir" split_words:"true"`

	// ReportFormat names report files.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {batch}     - Batch file name without extension
	// Default: "{batch}_{timestamp}.xlsx"
	ReportFormat string `yaml:"report_format" split_words:"true" validate:"required"`

	// ArchiveDir receives batch files that were fully committed.
	// Empty leaves them in place.
	ArchiveDir string `yaml:"archive_dir" split_words:"true"`

	// ArchiveByDate files archived batches under YYYY/MM/DD subdirectories.
	ArchiveByDate bool `yaml:"archive_by_date" split_words:"true"`
}

// BatchConfig controls how batch files are read.
type BatchConfig struct {
	// Sheet is the worksheet read from an XLSX batch. Empty means the first.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding the column names.
	// Default: 1
	HeaderRow int `yaml:"header_row" split_words:"true" validate:"gte=1"`

	// Normalize lists the code normalization rules, applied before codes
	// are looked up.
	Normalize []NormalizeRule `yaml:"normalize" ignored:"true" validate:"dive"`
}

// =============================================================================
// NORMALIZATION RULES
// =============================================================================

// NormalizeRule applies actions to one batch column.
type NormalizeRule struct {
	// Field is the column name: ledger_code, sub_group_code,
	// main_group_code or status.
	Field string `yaml:"field" validate:"oneof=ledger_code sub_group_code main_group_code status"`

	// Actions are applied in order.
	Actions []NormalizeAction `yaml:"actions" validate:"dive"`
}

// NormalizeAction is one normalization step.
type NormalizeAction struct {
	// Type is one of:
	//   - "trim"                : Remove leading and trailing whitespace
	//   - "uppercase"           : Convert to uppercase
	//   - "lowercase"           : Convert to lowercase
	//   - "pad_zeros_to_length" : Left-pad with zeros to Value characters
	//   - "prepend_string"      : Prepend Value unless already present
	//   - "lookup"              : Replace through LookupTable
	Type string `yaml:"type" validate:"oneof=trim uppercase lowercase pad_zeros_to_length prepend_string lookup"`

	// Value is the parameter of pad_zeros_to_length and prepend_string.
	Value string `yaml:"value"`

	// LookupTable maps input values to replacements for lookup.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the built-in configuration.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// LoadMainConfig loads, overrides and validates the configuration.
//
// PARAMETERS:
//   - configPath: The YAML file to read.
//   - required: Whether a missing file is an error. False for the default
//     path, true when the user named the file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or the result is invalid.
func LoadMainConfig(configPath string, required bool) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
		// Defaults and environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.API.BaseURL == "" {
		config.API.BaseURL = "http://localhost:5000"
	}
	config.Validation.Policy = strings.ToLower(strings.TrimSpace(config.Validation.Policy))
	if config.Validation.Policy == "" {
		config.Validation.Policy = "lenient"
	}
	config.Submission.ResetPolicy = strings.ToLower(strings.TrimSpace(config.Submission.ResetPolicy))
	if config.Submission.ResetPolicy == "" {
		config.Submission.ResetPolicy = "on_zero_failures"
	}
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
	if config.Output.ReportFormat == "" {
		config.Output.ReportFormat = "{batch}_{timestamp}.xlsx"
	}
	if config.Batch.HeaderRow == 0 {
		config.Batch.HeaderRow = 1
	}
}

var validate = validator.New()

// validateMainConfig validates the merged configuration and reports every
// failing field by its YAML path.
func validateMainConfig(config *MainConfig) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", yamlPath(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// yamlPath turns "MainConfig.API.BaseURL" into "api.base_url".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || (nextLower && runes[i-1] >= 'A' && runes[i-1] <= 'Z') {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
