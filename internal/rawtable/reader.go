// =============================================================================
// Structure Dataset Builder - Raw Table Reader
// =============================================================================
//
// This module parses the raw survey table. The layout is fixed:
//
//   line 1   : title, ignored (e.g. "Table 1")
//   line 2   : parameter name annotation, ignored (semicolon-delimited)
//   line 3   : column header (semicolon-delimited)
//   line 4+  : data rows (semicolon-delimited)
//
// Every record is exactly one physical line. A quote that the csv reader
// cannot close on the same line, or a quoted field holding a line break, is
// a FormatError rather than a merged cell.
//
// Every header name and every cell is trimmed. Cells that are empty after
// trimming are left out of the row entirely, so "absent" and "empty" are the
// same thing downstream.
//
// =============================================================================

package rawtable

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/ginjaninja78/structure-dataset/pkg/utils"
)

// Delimiter is the field separator of the raw table.
const Delimiter = ';'

// =============================================================================
// ERRORS
// =============================================================================

// FormatError reports a raw table that does not follow the fixed layout.
type FormatError struct {
	// Line is the 1-indexed line the problem was found on, or 0 if the
	// file ended early.
	Line int

	Msg string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("raw table format: line %d: %s", e.Line, e.Msg)
	}
	return "raw table format: " + e.Msg
}

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is the parsed raw table.
type Table struct {
	// Headers are the trimmed column names in source order.
	Headers []string

	// Rows are the data rows in source order.
	Rows []types.RawRow
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadFile opens and parses the raw table at path.
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw table: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses a raw table from r.
//
// PARSING PROCESS:
//   1. Strip a UTF-8 byte order mark, if any
//   2. Skip the title line (it is not necessarily delimited)
//   3. Skip the parameter annotation line, even when it is blank
//   4. Read the header record
//   5. Convert each remaining record to a RawRow
//
// A missing preamble line or header is a *FormatError. So is a data row
// without an ID or Name: the pipeline is fail-fast.
func Read(r io.Reader) (*Table, error) {
	reader := bufio.NewReader(utils.NewUTF8Reader(r))

	// The title and annotation lines may contain anything, including
	// nothing, so they are consumed raw.
	if err := skipLine(reader, "title"); err != nil {
		return nil, err
	}
	if err := skipLine(reader, "parameter annotation"); err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader)

	rawHeaders, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Msg: "missing header line"}
		}
		return nil, wrapReadError(err, "header line")
	}
	headers := cleanHeaders(rawHeaders)

	table := &Table{Headers: headers}
	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapReadError(err, "raw table")
		}

		line, _ := csvReader.FieldPos(0)
		line += preambleLines

		if isRowEmpty(record) {
			continue
		}
		if spansLines(record) {
			return nil, &FormatError{Line: line, Msg: "quoted field spans more than one line"}
		}

		row := types.RawRow{Line: line, Cells: make(map[string]string, len(headers))}
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			if value := strings.TrimSpace(record[i]); value != "" {
				row.Cells[header] = value
			}
		}

		if row.ID() == "" {
			return nil, &FormatError{Line: line, Msg: "row has no ID"}
		}
		if row.Name() == "" {
			return nil, &FormatError{Line: line, Msg: fmt.Sprintf("row %q has no Name", row.ID())}
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// configureReader sets up the csv reader for the raw table dialect.
func configureReader(reader *csv.Reader) {
	reader.Comma = Delimiter

	// Header and data rows may differ in width.
	reader.FieldsPerRecord = -1

	// A stray quote is a parse error, never a cell that runs on into the
	// next rows.
	reader.LazyQuotes = false
}

// preambleLines is the number of lines consumed before the csv reader
// starts counting.
const preambleLines = 2

// skipLine consumes one physical line. Only a line that is missing
// altogether is an error; a blank line is skipped like any other.
func skipLine(reader *bufio.Reader, what string) error {
	line, err := reader.ReadString('\n')
	if err == nil || (errors.Is(err, io.EOF) && line != "") {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return &FormatError{Msg: "missing " + what + " line"}
	}
	return fmt.Errorf("failed to read %s line: %w", what, err)
}

// wrapReadError turns a csv quoting error into a FormatError on the line
// the record started on.
func wrapReadError(err error, what string) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &FormatError{Line: parseErr.StartLine + preambleLines, Msg: parseErr.Err.Error()}
	}
	return fmt.Errorf("failed to read %s: %w", what, err)
}

// spansLines reports whether a quoted cell carried a line break into the
// record.
func spansLines(record []string) bool {
	for _, cell := range record {
		if strings.ContainsAny(cell, "\r\n") {
			return true
		}
	}
	return false
}

// cleanHeaders trims every header name. Unlike most CSV inputs, an empty
// header is kept as "" so that its column is simply ignored.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

// isRowEmpty checks if a record contains only empty values.
func isRowEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
