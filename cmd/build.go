// =============================================================================
// Structure Dataset Builder - Build Command
// =============================================================================
//
// This file defines the 'build' command, which is the main command. It runs
// the conversion pipeline and hands the result to every configured
// assembler.
//
// COMMAND USAGE:
//   structds build [flags]
//
// FLAGS:
//   --dry-run : Run the pipeline and print the summary without writing
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Open the catalog
//   3. Run the pipeline (read, enrich, resolve, validate)
//   4. Write every configured output format
//   5. Write the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/structure-dataset/internal/converter"
	"github.com/ginjaninja78/structure-dataset/internal/logging"
	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/ginjaninja78/structure-dataset/internal/writer"
	"github.com/ginjaninja78/structure-dataset/pkg/utils"
)

// dryRun runs the pipeline without writing any output.
var dryRun bool

// buildCmd represents the 'build' command.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the structure dataset",
	Long: `The build command reads the raw survey table and the reference tables,
enriches languages from the catalog, resolves cell values to codes and writes
the dataset in every configured format.

Pipeline errors abort the build before anything is written. A summary of each
successful run is written to <output_dir>/reports.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing any output",
	)
}

// runBuild orchestrates one build.
func runBuild(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}

	runID := utils.NewRunID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)
	logger.Info("Build started", "dataset", cfg.DatasetID, "formats", cfg.Formats, "dry_run", dryRun)

	// =========================================================================
	// STEP 2: OPEN CATALOG
	// =========================================================================

	cat, err := openCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	// =========================================================================
	// STEP 3: RUN PIPELINE
	// =========================================================================

	dataset, stats, err := converter.New(cat, cfg.Options(), logger).Run(ctx, cfg.Inputs())
	if err != nil {
		return err
	}

	summary := utils.ProcessingSummary{
		RunID:             runID,
		DatasetID:         cfg.DatasetID,
		StartTime:         startTime,
		RawRows:           stats.Rows,
		Languages:         stats.Languages,
		EnrichedLanguages: stats.Enriched,
		Parameters:        len(dataset.Parameters),
		Codes:             len(dataset.Codes),
		Values:            stats.Values,
		UnresolvedValues:  stats.Unresolved,
	}

	if dryRun {
		summary.EndTime = time.Now()
		logger.Info("Dry run, nothing written")
		return utils.WriteSummary(cmd.OutOrStdout(), summary)
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUTS
	// =========================================================================

	outputs, err := writer.NewAll(cfg.Formats, cfg.OutputDir, cfg.DatasetID)
	if err != nil {
		return err
	}
	summary.Outputs, err = assembleAll(ctx, outputs, dataset)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 5: WRITE SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()

	fm := utils.NewFileManager(cfg.OutputDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	summaryPath, err := fm.WriteSummaryLog(summary)
	if err != nil {
		return err
	}

	logger.Info("Build complete", "summary", summaryPath, "duration", summary.EndTime.Sub(startTime))
	return printOutputs(cmd.OutOrStdout(), summary.Outputs, summaryPath)
}

// assembleAll runs every assembler in order and stops at the first error.
func assembleAll(ctx context.Context, outputs []writer.Output, dataset *types.Dataset) ([]string, error) {
	logger := logging.FromContext(ctx)

	written := make([]string, 0, len(outputs))
	for _, out := range outputs {
		logger.Debug("Writing output", "format", out.Format, "path", out.Path)
		if err := out.Assembler.Assemble(ctx, dataset); err != nil {
			return nil, fmt.Errorf("failed to write %s output: %w", out.Format, err)
		}
		written = append(written, fmt.Sprintf("%s: %s", out.Format, out.Path))
	}
	return written, nil
}

func printOutputs(w io.Writer, outputs []string, summaryPath string) error {
	for _, out := range outputs {
		if _, err := fmt.Fprintf(w, "  ✓ %s\n", out); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Summary: %s\n", summaryPath)
	return err
}
