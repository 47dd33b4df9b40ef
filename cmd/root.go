// =============================================================================
// Structure Dataset Builder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (structds)
//   ├── buildCmd    (structds build)
//   ├── validateCmd (structds validate)
//   └── versionCmd  (structds version)
//
// CONFIGURATION:
//   Every setting of the YAML file can be overridden by a persistent flag of
//   the same name (with dashes) or by a STRUCTDS_* environment variable.
//   Flags win over the environment, which wins over the file.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/structure-dataset/internal/catalog"
	"github.com/ginjaninja78/structure-dataset/internal/config"
	"github.com/ginjaninja78/structure-dataset/internal/logging"
	"github.com/ginjaninja78/structure-dataset/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// defaultConfigFile is used when --config is not given. It may be absent.
const defaultConfigFile = "structds.yaml"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "structds",

	Short: "Structure Dataset Builder - Turn a survey table into a linked structure dataset",

	Long: `Structure Dataset Builder converts a semicolon-delimited survey table of
per-language measurements into four linked tables: languages, parameters,
codes and values.

Languages are enriched from a Glottolog-style catalog. Cell texts are resolved
against a controlled code list, and only observed cells become values.

Example Usage:
  structds build                          # Build with ./structds.yaml
  structds build --config ./nichols.yaml  # Use a specific configuration file
  structds build --formats csv,sqlite     # Override the output formats
  structds validate                       # Check inputs without writing`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", defaultConfigFile, "Path to the configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Overrides for the configuration file.
	flags.String(config.KeyRawTable, "", "Raw survey table")
	flags.String(config.KeyParametersTable, "", "Parameter reference table")
	flags.String(config.KeyCodesTable, "", "Code reference table")
	flags.String(config.KeyLanguagesTable, "", "Language mapping table")
	flags.String(config.KeySourcesFile, "", "Bibliography to copy into the CSV output")
	flags.String(config.KeyCatalogKind, "", "Catalog kind (geofile)")
	flags.String(config.KeyCatalogPath, "", "Catalog dump")
	flags.String(config.KeyOutputDir, "", "Output directory")
	flags.StringSlice(config.KeyFormats, nil, "Output formats (csv, xlsx, sqlite, parquet)")
	flags.String(config.KeyDatasetID, "", "Dataset identifier")
	flags.Bool(config.KeyUseCodeName, false, "Replace value text with the matched code's name")
	flags.String(config.KeyLogLevel, "", "Log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, "", "Log format (text, json)")
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig reads the configuration with flag and environment overrides,
// and sets up logging.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	config.BindEnvironment(v)

	path := cfgFile
	if path == defaultConfigFile && !flags.Changed("config") && !utils.FileExists(path) {
		path = ""
	}

	cfg, err := config.Load(path, v)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

// openCatalog opens the configured catalog.
func openCatalog(cfg *config.Config) (catalog.Catalog, error) {
	switch cfg.Catalog.Kind {
	case config.CatalogGeoFile:
		geo, err := catalog.OpenGeoFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		slog.Debug("Loaded catalog", "path", cfg.Catalog.Path, "entries", geo.Len())
		return geo, nil
	default:
		return nil, fmt.Errorf("unknown catalog kind: %s", cfg.Catalog.Kind)
	}
}
