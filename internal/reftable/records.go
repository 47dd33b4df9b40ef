// =============================================================================
// Structure Dataset Builder - Reference Table Records
// =============================================================================
//
// This module reads the small curated reference tables (parameters, codes,
// language mapping) as generic records. Two formats are supported:
//
//   .csv  : comma-delimited, first row is the header (the usual etc/ layout)
//   .xlsx : first sheet, first row is the header
//
// Header names and values are trimmed. Column order is kept so that tables
// can be emitted verbatim.
//
// =============================================================================

package reftable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/ginjaninja78/structure-dataset/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// RecordTable is a generic reference table.
type RecordTable struct {
	Columns []string
	Records []types.Record
}

// HasColumn reports whether the table header contains column.
func (t *RecordTable) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// requireColumns fails if any of the given columns is missing.
func (t *RecordTable) requireColumns(table string, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s table is missing column(s): %s", table, strings.Join(missing, ", "))
	}
	return nil
}

// ReadRecordsFile reads a reference table, choosing the format by extension.
func ReadRecordsFile(path string) (*RecordTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open reference table: %w", err)
		}
		defer file.Close()

		table, err := ReadRecords(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return table, nil
	}
}

// ReadRecords reads a comma-delimited reference table from r.
func ReadRecords(r io.Reader) (*RecordTable, error) {
	csvReader := csv.NewReader(utils.NewUTF8Reader(r))
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reference table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reference table: %w", err)
		}
		rows = append(rows, row)
	}

	return buildRecordTable(header, rows), nil
}

// readXLSX reads the first sheet of a workbook.
func readXLSX(path string) (*RecordTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read rows: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: reference table is empty", path)
	}

	return buildRecordTable(rows[0], rows[1:]), nil
}

// buildRecordTable turns a header and raw rows into records. Columns with a
// blank header are dropped, blank rows are skipped, and short rows leave
// their trailing columns unset.
func buildRecordTable(header []string, rows [][]string) *RecordTable {
	var columns []string
	var positions []int
	for i, h := range header {
		if name := strings.TrimSpace(h); name != "" {
			columns = append(columns, name)
			positions = append(positions, i)
		}
	}

	table := &RecordTable{Columns: columns}
	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		values := make(map[string]string, len(columns))
		for j, c := range columns {
			if pos := positions[j]; pos < len(row) {
				values[c] = strings.TrimSpace(row[pos])
			}
		}
		table.Records = append(table.Records, types.Record{Columns: columns, Values: values})
	}
	return table
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
