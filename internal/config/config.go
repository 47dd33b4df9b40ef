// =============================================================================
// Structure Dataset Builder - Configuration Module
// =============================================================================
//
// This module is responsible for loading the build configuration. One YAML
// file describes where the inputs live, which catalog to use and which
// output formats to produce.
//
// PRECEDENCE (highest first):
//   1. Command line flags
//   2. STRUCTDS_* environment variables
//   3. The YAML file
//   4. Built-in defaults
//
// PATHS:
//   Relative paths in the YAML file are resolved against the directory of
//   the file. Paths given as flags or environment variables are used as-is.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/structure-dataset/internal/converter"
	"github.com/ginjaninja78/structure-dataset/internal/reftable"
	"github.com/ginjaninja78/structure-dataset/internal/writer"
)

// Catalog kinds.
const (
	CatalogGeoFile = "geofile"
)

// validFormats is the set of formats the writer package can produce.
var validFormats = func() map[string]bool {
	set := make(map[string]bool, len(writer.Formats))
	for _, f := range writer.Formats {
		set[f] = true
	}
	return set
}()

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the build configuration.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// RawTable is the semicolon-delimited survey table.
	// Required.
	RawTable string `yaml:"raw_table"`

	// ParametersTable is the parameter reference table (.csv or .xlsx).
	// Default: "etc/parameters.csv"
	ParametersTable string `yaml:"parameters_table"`

	// CodesTable is the code reference table (.csv or .xlsx).
	// Default: "etc/codes.csv"
	CodesTable string `yaml:"codes_table"`

	// LanguagesTable maps language IDs to glottocodes and sources.
	// Default: "etc/languages.csv"
	LanguagesTable string `yaml:"languages_table"`

	// SourcesFile is a bibliography copied verbatim next to the CSV output.
	// Optional.
	SourcesFile string `yaml:"sources_file"`

	// Catalog selects the reference catalog used for enrichment.
	Catalog CatalogConfig `yaml:"catalog"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where all outputs and run summaries are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// Formats lists the outputs to produce.
	// Valid values: "csv", "xlsx", "sqlite", "parquet"
	// Default: ["csv"]
	Formats []string `yaml:"formats"`

	// DatasetID names the dataset in metadata and single-file outputs.
	// Default: "structure-dataset"
	DatasetID string `yaml:"dataset_id"`

	// =========================================================================
	// BEHAVIOR SETTINGS
	// =========================================================================

	// UseCodeName replaces a value's text with its code's canonical name.
	// Default: false
	UseCodeName bool `yaml:"use_code_name"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler.
	// Valid values: "text", "json"
	// Default: "text"
	LogFormat string `yaml:"log_format"`
}

// CatalogConfig selects the reference catalog.
type CatalogConfig struct {
	// Kind is the catalog implementation.
	// Valid values: "geofile"
	// Default: "geofile"
	Kind string `yaml:"kind"`

	// Path is the catalog dump for the geofile kind.
	Path string `yaml:"path"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file and applies overrides from v.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. Empty means defaults only.
//   - v: Flag and environment overrides. May be nil.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be read or the result is invalid.
func Load(configPath string, v *viper.Viper) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		config.resolvePaths(filepath.Dir(configPath))
	}

	if v != nil {
		config.applyOverrides(v)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// resolvePaths makes the file's relative paths relative to baseDir.
func (c *Config) resolvePaths(baseDir string) {
	for _, p := range []*string{
		&c.RawTable,
		&c.ParametersTable,
		&c.CodesTable,
		&c.LanguagesTable,
		&c.SourcesFile,
		&c.Catalog.Path,
		&c.OutputDir,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}

	// Defaulted reference tables live next to the file too.
	for p, def := range map[*string]string{
		&c.ParametersTable: defaultParametersTable,
		&c.CodesTable:      defaultCodesTable,
		&c.LanguagesTable:  defaultLanguagesTable,
	} {
		if *p == "" {
			*p = filepath.Join(baseDir, def)
		}
	}
}

// EnvPrefix is the prefix of override environment variables.
const EnvPrefix = "STRUCTDS"

var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

// BindEnvironment makes v read STRUCTDS_* environment variables.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
}

// Override keys. Flags use the same names; environment variables are
// STRUCTDS_ followed by the upper-cased key with "-" replaced by "_".
const (
	KeyRawTable        = "raw-table"
	KeyParametersTable = "parameters-table"
	KeyCodesTable      = "codes-table"
	KeyLanguagesTable  = "languages-table"
	KeySourcesFile     = "sources-file"
	KeyCatalogKind     = "catalog-kind"
	KeyCatalogPath     = "catalog-path"
	KeyOutputDir       = "output-dir"
	KeyFormats         = "formats"
	KeyDatasetID       = "dataset-id"
	KeyUseCodeName     = "use-code-name"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
)

// applyOverrides copies every key set in v over the file values.
func (c *Config) applyOverrides(v *viper.Viper) {
	for key, p := range map[string]*string{
		KeyRawTable:        &c.RawTable,
		KeyParametersTable: &c.ParametersTable,
		KeyCodesTable:      &c.CodesTable,
		KeyLanguagesTable:  &c.LanguagesTable,
		KeySourcesFile:     &c.SourcesFile,
		KeyCatalogKind:     &c.Catalog.Kind,
		KeyCatalogPath:     &c.Catalog.Path,
		KeyOutputDir:       &c.OutputDir,
		KeyDatasetID:       &c.DatasetID,
		KeyLogLevel:        &c.LogLevel,
		KeyLogFormat:       &c.LogFormat,
	} {
		if v.IsSet(key) {
			*p = v.GetString(key)
		}
	}

	if v.IsSet(KeyFormats) {
		// A comma separated env var arrives as one element.
		var formats []string
		for _, f := range v.GetStringSlice(KeyFormats) {
			for _, part := range strings.Split(f, ",") {
				if part = strings.TrimSpace(part); part != "" {
					formats = append(formats, part)
				}
			}
		}
		c.Formats = formats
	}
	if v.IsSet(KeyUseCodeName) {
		c.UseCodeName = v.GetBool(KeyUseCodeName)
	}
}

const (
	defaultParametersTable = "etc/parameters.csv"
	defaultCodesTable      = "etc/codes.csv"
	defaultLanguagesTable  = "etc/languages.csv"
)

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.ParametersTable == "" {
		config.ParametersTable = defaultParametersTable
	}
	if config.CodesTable == "" {
		config.CodesTable = defaultCodesTable
	}
	if config.LanguagesTable == "" {
		config.LanguagesTable = defaultLanguagesTable
	}
	if config.Catalog.Kind == "" {
		config.Catalog.Kind = CatalogGeoFile
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if len(config.Formats) == 0 {
		config.Formats = []string{writer.FormatCSV}
	}
	if config.DatasetID == "" {
		config.DatasetID = "structure-dataset"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
}

// validate checks the configuration. It does not touch the filesystem;
// missing input files are reported when they are opened.
func validate(config *Config) error {
	if config.RawTable == "" {
		return fmt.Errorf("raw_table is required")
	}

	switch config.Catalog.Kind {
	case CatalogGeoFile:
		if config.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for catalog kind %q", CatalogGeoFile)
		}
	default:
		return fmt.Errorf("unknown catalog kind: %s", config.Catalog.Kind)
	}

	for i, f := range config.Formats {
		f = strings.ToLower(f)
		if !validFormats[f] {
			return fmt.Errorf("unknown output format: %s", f)
		}
		config.Formats[i] = f
	}

	config.LogLevel = strings.ToLower(config.LogLevel)
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("unknown log level: %s", config.LogLevel)
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return fmt.Errorf("unknown log format: %s", config.LogFormat)
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Options returns the converter options.
func (c *Config) Options() converter.Options {
	return converter.Options{UseCodeName: c.UseCodeName}
}

// Inputs returns the converter inputs.
func (c *Config) Inputs() converter.Inputs {
	return converter.Inputs{
		DatasetID: c.DatasetID,
		RawTable:  c.RawTable,
		References: reftable.Paths{
			Parameters: c.ParametersTable,
			Codes:      c.CodesTable,
			Languages:  c.LanguagesTable,
		},
		SourcesFile: c.SourcesFile,
	}
}
