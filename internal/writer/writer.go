// =============================================================================
// Structure Dataset Builder - Dataset Assemblers
// =============================================================================
//
// This package persists an assembled dataset. Every assembler works from the
// same flat rendering (types.Dataset.Tables), so they agree on table order,
// column order and which cells are null.
//
// FORMATS:
//   csv     : one CSV file per table plus StructureDataset-metadata.json
//   xlsx    : one workbook, one sheet per table
//   sqlite  : one database, typed columns, foreign keys enforced
//   parquet : one file per table
//
// The pipeline never imports this package. The CLI wires it in.
//
// =============================================================================

package writer

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
)

// Supported output formats.
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatSQLite  = "sqlite"
	FormatParquet = "parquet"
)

// Formats lists the supported formats in the order they are written.
var Formats = []string{FormatCSV, FormatXLSX, FormatSQLite, FormatParquet}

// Assembler persists a dataset.
type Assembler interface {
	Assemble(ctx context.Context, d *types.Dataset) error
}

// Output is a configured assembler and where it writes.
type Output struct {
	Format string

	// Path is the file or directory the assembler writes to.
	Path string

	Assembler Assembler
}

// New creates the assembler for one format.
//
// PARAMETERS:
//   - format: One of Formats.
//   - outputDir: The directory all outputs go under.
//   - name: The base name for single-file outputs.
func New(format, outputDir, name string) (Output, error) {
	if name == "" {
		name = "dataset"
	}

	switch strings.ToLower(format) {
	case FormatCSV:
		dir := filepath.Join(outputDir, "cldf")
		return Output{Format: FormatCSV, Path: dir, Assembler: &CSVDir{Dir: dir}}, nil
	case FormatXLSX:
		path := filepath.Join(outputDir, name+".xlsx")
		return Output{Format: FormatXLSX, Path: path, Assembler: &XLSX{Path: path}}, nil
	case FormatSQLite:
		path := filepath.Join(outputDir, name+".sqlite")
		return Output{Format: FormatSQLite, Path: path, Assembler: &SQLite{Path: path}}, nil
	case FormatParquet:
		dir := filepath.Join(outputDir, "parquet")
		return Output{Format: FormatParquet, Path: dir, Assembler: &Parquet{Dir: dir}}, nil
	default:
		return Output{}, fmt.Errorf("unsupported output format: %s (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

// NewAll creates the assemblers for formats, in the given order.
func NewAll(formats []string, outputDir, name string) ([]Output, error) {
	outputs := make([]Output, 0, len(formats))
	for _, f := range formats {
		out, err := New(f, outputDir, name)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// floatValue converts a float cell. Null cells become nil.
func floatValue(table string, col types.Column, c types.Cell) (any, error) {
	if !c.Valid {
		return nil, nil
	}
	f, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %q is not a number", table, col.Name, c.Value)
	}
	return f, nil
}

// splitReference splits "table.column".
func splitReference(ref string) (table, column string) {
	table, column, _ = strings.Cut(ref, ".")
	return table, column
}
