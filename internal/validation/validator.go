// =============================================================================
// Structure Dataset Builder - Validation Engine
// =============================================================================
//
// This module checks the assembled dataset before it is handed to any
// assembler. It validates:
//   - Primary keys: every table's IDs are non-empty and unique
//   - Foreign keys: values point at existing languages, parameters and codes;
//     codes point at existing parameters
//   - Sparsity: no value row exists for an empty cell
//   - Formats: glottocodes and coordinates are well-formed
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Each error names the table, the row ID and the field
//   - "error" severity is fatal; "warning" is reported and ignored
//
// =============================================================================

package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

var glottocodePattern = regexp.MustCompile(`^[a-z]{4}[0-9]{4}$`)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation problem.
type ValidationError struct {
	Severity string

	// Table is the dataset table the row belongs to.
	Table string

	// RowID is the ID of the offending row, if it has one.
	RowID string

	// Field is the column that failed validation.
	Field string

	// Value is the offending value.
	Value string

	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s %q, field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Table,
		e.RowID,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all problems, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

// Fatal returns only the error-severity problems.
func (r *ValidationResult) Fatal() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks one dataset.
type Validator struct {
	dataset *types.Dataset
	result  *ValidationResult

	languages  map[string]bool
	parameters map[string]bool
	codes      map[string]types.Code
}

// NewValidator creates a Validator for d.
func NewValidator(d *types.Dataset) *Validator {
	return &Validator{
		dataset:    d,
		result:     &ValidationResult{IsValid: true},
		languages:  make(map[string]bool, len(d.Languages)),
		parameters: make(map[string]bool, len(d.Parameters)),
		codes:      make(map[string]types.Code, len(d.Codes)),
	}
}

// Validate validates d and returns the fatal problems.
// This is the main entry point for validation.
func Validate(d *types.Dataset) []*ValidationError {
	return NewValidator(d).ValidateAll().Fatal()
}

// ValidateAll runs every check. Tables are checked in dependency order so
// that foreign keys can be resolved against the tables already seen.
func (v *Validator) ValidateAll() *ValidationResult {
	v.validateLanguages()
	v.validateParameters()
	v.validateCodes()
	v.validateValues()
	return v.result
}

func (v *Validator) validateLanguages() {
	for _, l := range v.dataset.Languages {
		if !v.checkPrimaryKey(types.TableLanguages, l.ID, v.languages) {
			continue
		}
		if l.Name == "" {
			v.add(SeverityError, types.TableLanguages, l.ID, "Name", "", "name is required")
		}
		if l.Glottocode != nil && !glottocodePattern.MatchString(*l.Glottocode) {
			v.add(SeverityError, types.TableLanguages, l.ID, "Glottocode", *l.Glottocode, "not a valid glottocode")
		}
		v.checkCoordinate(l.ID, "Latitude", l.Latitude, 90)
		v.checkCoordinate(l.ID, "Longitude", l.Longitude, 180)
		if (l.Latitude == nil) != (l.Longitude == nil) {
			v.add(SeverityError, types.TableLanguages, l.ID, "Latitude", types.Deref(l.Latitude), "latitude and longitude must be set together")
		}
	}
}

func (v *Validator) validateParameters() {
	for _, p := range v.dataset.Parameters {
		v.checkPrimaryKey(types.TableParameters, p.ID, v.parameters)
	}
}

func (v *Validator) validateCodes() {
	seen := make(map[string]bool, len(v.dataset.Codes))
	for _, c := range v.dataset.Codes {
		if !v.checkPrimaryKey(types.TableCodes, c.ID, seen) {
			continue
		}
		v.codes[c.ID] = c
		if !v.parameters[c.ParameterID] {
			v.add(SeverityError, types.TableCodes, c.ID, "Parameter_ID", c.ParameterID, "unknown parameter")
		}
	}
}

func (v *Validator) validateValues() {
	seen := make(map[string]bool, len(v.dataset.Values))
	observed := make(map[string]bool, len(v.dataset.Parameters))
	for _, val := range v.dataset.Values {
		if !v.checkPrimaryKey(types.TableValues, val.ID, seen) {
			continue
		}
		if !v.languages[val.LanguageID] {
			v.add(SeverityError, types.TableValues, val.ID, "Language_ID", val.LanguageID, "unknown language")
		}
		if !v.parameters[val.ParameterID] {
			v.add(SeverityError, types.TableValues, val.ID, "Parameter_ID", val.ParameterID, "unknown parameter")
		}
		if val.CodeID != "" {
			code, ok := v.codes[val.CodeID]
			switch {
			case !ok:
				v.add(SeverityError, types.TableValues, val.ID, "Code_ID", val.CodeID, "unknown code")
			case code.ParameterID != val.ParameterID:
				v.add(SeverityError, types.TableValues, val.ID, "Code_ID", val.CodeID,
					fmt.Sprintf("code belongs to parameter %q", code.ParameterID))
			}
		}
		if val.Value == "" {
			v.add(SeverityError, types.TableValues, val.ID, "Value", "", "value rows must not be empty")
		}
		observed[val.ParameterID] = true
	}

	for _, p := range v.dataset.Parameters {
		if !observed[p.ID] {
			v.add(SeverityWarning, types.TableParameters, p.ID, "ID", p.ID, "parameter has no observed values")
		}
	}
}

// checkPrimaryKey records id in seen and reports empty or duplicate IDs.
// It returns false if the row should not be checked further.
func (v *Validator) checkPrimaryKey(table, id string, seen map[string]bool) bool {
	if id == "" {
		v.add(SeverityError, table, "", "ID", "", "ID is required")
		return false
	}
	if seen[id] {
		v.add(SeverityError, table, id, "ID", id, "duplicate ID")
		return false
	}
	seen[id] = true
	return true
}

func (v *Validator) checkCoordinate(id, field string, value *string, limit float64) {
	if value == nil {
		return
	}
	f, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		v.add(SeverityError, types.TableLanguages, id, field, *value, "not a number")
		return
	}
	if f < -limit || f > limit {
		v.add(SeverityError, types.TableLanguages, id, field, *value, fmt.Sprintf("out of range [-%g, %g]", limit, limit))
	}
}

func (v *Validator) add(severity, table, rowID, field, value, message string) {
	v.result.Errors = append(v.result.Errors, &ValidationError{
		Severity: severity,
		Table:    table,
		RowID:    rowID,
		Field:    field,
		Value:    value,
		Message:  message,
	})
	if severity == SeverityError {
		v.result.ErrorCount++
		v.result.IsValid = false
	} else {
		v.result.WarningCount++
	}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))
	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}
