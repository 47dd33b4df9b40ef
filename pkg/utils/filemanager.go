// =============================================================================
// Structure Dataset Builder - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the builder, including:
//   - Output directory management
//   - Run summary generation
//   - Summary file naming
//   - Verbatim file pass-through (e.g. the bibliography)
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the output side of a build run.
type FileManager struct {
	// OutputDir is the directory the dataset is assembled into.
	OutputDir string

	// ReportsDir is the directory run summaries are written to.
	ReportsDir string
}

// NewFileManager creates a FileManager. Summaries go to a "reports"
// directory next to the dataset.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ReportsDir: filepath.Join(outputDir, "reports"),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ReportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// NewRunID returns a fresh identifier for one build run.
func NewRunID() string {
	return uuid.New().String()
}

// GenerateOutputFileName expands a file name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID, unless params sets "uuid"
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//   - params: Extra placeholder values, e.g. {"dataset": "nichols"}.
//   - ext: The extension to enforce, including the dot.
//
// EXAMPLE:
//   format: "{dataset}_{timestamp}_{uuid}"
//   output: "nichols_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.txt"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a build run.
type ProcessingSummary struct {
	RunID     string
	DatasetID string
	StartTime time.Time
	EndTime   time.Time

	RawRows           int
	Languages         int
	EnrichedLanguages int
	Parameters        int
	Codes             int
	Values            int
	UnresolvedValues  int

	// Outputs lists what each assembler wrote, e.g. "sqlite: out/x.sqlite".
	Outputs []string
}

// WriteSummaryLog writes a run summary into the reports directory and
// returns its path.
func (fm *FileManager) WriteSummaryLog(summary ProcessingSummary) (string, error) {
	name := GenerateOutputFileName("build_summary_{dataset}_{timestamp}_{uuid}", map[string]string{
		"dataset": summary.DatasetID,
		"uuid":    summary.RunID,
	}, ".txt")
	summaryPath := filepath.Join(fm.ReportsDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := WriteSummary(writer, summary); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// WriteSummary renders a run summary as plain text.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	duration := summary.EndTime.Sub(summary.StartTime)
	_, err := fmt.Fprintf(w, "Structure Dataset Builder - Build Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Dataset:        %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Raw Rows:           %d\n"+
		"  Languages:          %d\n"+
		"  Enriched Languages: %d\n"+
		"  Parameters:         %d\n"+
		"  Codes:              %d\n"+
		"  Values:             %d\n"+
		"  Unresolved Values:  %d\n\n",
		summary.RunID,
		summary.DatasetID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.RawRows,
		summary.Languages,
		summary.EnrichedLanguages,
		summary.Parameters,
		summary.Codes,
		summary.Values,
		summary.UnresolvedValues)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if len(summary.Outputs) > 0 {
		fmt.Fprintln(w, "Outputs:")
		fmt.Fprintln(w, "--------------------------------------------------------------------------------")
		for _, out := range summary.Outputs {
			fmt.Fprintf(w, "  %s\n", out)
		}
		fmt.Fprintln(w)
	}

	_, err = fmt.Fprint(w, "================================================================================\n"+
		"End of Summary\n")
	return err
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// CopyFile copies a file from src to dst.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
