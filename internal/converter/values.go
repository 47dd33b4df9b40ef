package converter

import (
	"github.com/ginjaninja78/structure-dataset/internal/reftable"
	"github.com/ginjaninja78/structure-dataset/internal/types"
)

// Options controls the value table builder.
type Options struct {
	// UseCodeName replaces a cell's text with the canonical name of the code
	// it resolves to, when that code has one. When false the raw text is
	// always kept.
	UseCodeName bool
}

// ValueID returns the value table key for a (language, parameter) pair.
func ValueID(languageID, parameterID string) string {
	return languageID + "-" + parameterID
}

// BuildValues emits one value per non-empty cell, row-major in row order and
// then in parameter order. Cells whose text matches no code get an empty
// Code_ID.
func BuildValues(rows []types.RawRow, paramIDs []string, codes *reftable.CodeIndex, opts Options) []types.Value {
	var values []types.Value
	for _, row := range rows {
		for _, pid := range paramIDs {
			text, ok := row.Cell(pid)
			if !ok {
				continue
			}

			value := types.Value{
				ID:          ValueID(row.ID(), pid),
				LanguageID:  row.ID(),
				ParameterID: pid,
				Value:       text,
			}
			if code, ok := codes.Resolve(pid, text); ok {
				value.CodeID = code.ID
				if opts.UseCodeName && code.Name != "" {
					value.Value = code.Name
				}
			}
			values = append(values, value)
		}
	}
	return values
}
