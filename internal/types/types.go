// =============================================================================
// Structure Dataset Builder - Shared Types
// =============================================================================
//
// This package contains the data model shared by the pipeline stages and the
// dataset assemblers. Types defined here are used by:
//   - rawtable   (RawRow)
//   - reftable   (Record, Parameter, Code)
//   - converter  (Language, Value, Dataset)
//   - validation
//   - writer
//
// Optional fields are pointers: nil means "absent", which is not the same as
// an empty string.
//
// =============================================================================

package types

// =============================================================================
// RAW ROWS
// =============================================================================

// Well-known raw table columns.
const (
	ColumnID   = "ID"
	ColumnName = "Name"
	ColumnLat  = "Lat"
	ColumnLon  = "Lon"
)

// RawRow is one data row of the raw survey table.
type RawRow struct {
	// Line is the 1-indexed physical line of the row in the source file.
	Line int

	// Cells maps trimmed column name to trimmed value.
	// Empty cells are never stored.
	Cells map[string]string
}

// ID returns the source-assigned language identifier.
func (r RawRow) ID() string {
	return r.Cells[ColumnID]
}

// Name returns the language name.
func (r RawRow) Name() string {
	return r.Cells[ColumnName]
}

// Cell returns the value of a column and whether the row has it.
func (r RawRow) Cell(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// =============================================================================
// REFERENCE RECORDS
// =============================================================================

// Record is one row of a generic reference table, with its column order kept
// so that it can be emitted verbatim.
type Record struct {
	Columns []string
	Values  map[string]string
}

// Get returns the value of a column, or "" if the record has none.
func (r Record) Get(column string) string {
	return r.Values[column]
}

// Parameter is a controlled measurement dimension. Its ID is the raw table
// column that holds the cells for it.
type Parameter struct {
	ID     string
	Record Record
}

// Code is a controlled value of a parameter.
type Code struct {
	// ID is the canonical code identifier used in the value table.
	ID string

	// ParameterID is the parameter this code belongs to.
	ParameterID string

	// OldName is the legacy display text used in the raw table.
	OldName string

	// Name is the canonical display name. May be empty.
	Name string

	Record Record
}

// =============================================================================
// OUTPUT ENTITIES
// =============================================================================

// Language is one row of the language table.
type Language struct {
	ID           string
	Name         string
	Glottocode   *string
	ISO639P3code *string
	Macroarea    *string

	// Latitude and Longitude are kept as text. Numeric parsing happens in
	// the assemblers that need typed columns.
	Latitude  *string
	Longitude *string

	// Source lists citation keys for the language. May be empty.
	Source []string
}

// Value is one observed (language, parameter) cell.
type Value struct {
	ID          string
	LanguageID  string
	ParameterID string

	// CodeID is "" when the cell text matched no code.
	CodeID string

	Value string
}

// Dataset is the complete output of one pipeline run.
type Dataset struct {
	// ID names the dataset in assembler metadata.
	ID string

	Languages  []Language
	Parameters []Parameter
	Codes      []Code
	Values     []Value

	// ParameterColumns and CodeColumns are the verbatim headers of the
	// reference tables.
	ParameterColumns []string
	CodeColumns      []string

	// SourcesFile is the path of a bibliography to pass through verbatim.
	// Empty if none is configured.
	SourcesFile string
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
