package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/structure-dataset/internal/types"
)

func validDataset() *types.Dataset {
	return &types.Dataset{
		Languages: []types.Language{
			{ID: "abcd", Name: "Lang1", Latitude: types.Ptr("10"), Longitude: types.Ptr("-20.5")},
			{ID: "xyz", Name: "Lang2", Glottocode: types.Ptr("xyza0001")},
		},
		Parameters: []types.Parameter{{ID: "P1"}, {ID: "P2"}},
		Codes: []types.Code{
			{ID: "C1", ParameterID: "P1"},
			{ID: "C2", ParameterID: "P2"},
		},
		Values: []types.Value{
			{ID: "abcd-P1", LanguageID: "abcd", ParameterID: "P1", CodeID: "C1", Value: "foo"},
			{ID: "xyz-P2", LanguageID: "xyz", ParameterID: "P2", Value: "bar"},
		},
	}
}

func TestValidateValid(t *testing.T) {
	result := NewValidator(validDataset()).ValidateAll()
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, Validate(validDataset()))
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *types.Dataset)
		wantTable string
		wantField string
		wantMsg   string
	}{
		{
			name:      "duplicate language",
			mutate:    func(d *types.Dataset) { d.Languages = append(d.Languages, types.Language{ID: "abcd", Name: "Again"}) },
			wantTable: types.TableLanguages, wantField: "ID", wantMsg: "duplicate ID",
		},
		{
			name:      "bad glottocode",
			mutate:    func(d *types.Dataset) { d.Languages[1].Glottocode = types.Ptr("XYZ") },
			wantTable: types.TableLanguages, wantField: "Glottocode", wantMsg: "not a valid glottocode",
		},
		{
			name:      "latitude not a number",
			mutate:    func(d *types.Dataset) { d.Languages[0].Latitude = types.Ptr("10N") },
			wantTable: types.TableLanguages, wantField: "Latitude", wantMsg: "not a number",
		},
		{
			name:      "longitude out of range",
			mutate:    func(d *types.Dataset) { d.Languages[0].Longitude = types.Ptr("190") },
			wantTable: types.TableLanguages, wantField: "Longitude", wantMsg: "out of range [-180, 180]",
		},
		{
			name:      "half coordinates",
			mutate:    func(d *types.Dataset) { d.Languages[0].Longitude = nil },
			wantTable: types.TableLanguages, wantField: "Latitude", wantMsg: "latitude and longitude must be set together",
		},
		{
			name:      "code with unknown parameter",
			mutate:    func(d *types.Dataset) { d.Codes[1].ParameterID = "P9" },
			wantTable: types.TableCodes, wantField: "Parameter_ID", wantMsg: "unknown parameter",
		},
		{
			name:      "value with unknown language",
			mutate:    func(d *types.Dataset) { d.Values[0].LanguageID = "nope" },
			wantTable: types.TableValues, wantField: "Language_ID", wantMsg: "unknown language",
		},
		{
			name:      "value with unknown code",
			mutate:    func(d *types.Dataset) { d.Values[1].CodeID = "C9" },
			wantTable: types.TableValues, wantField: "Code_ID", wantMsg: "unknown code",
		},
		{
			name:      "value with foreign code",
			mutate:    func(d *types.Dataset) { d.Values[1].CodeID = "C1" },
			wantTable: types.TableValues, wantField: "Code_ID", wantMsg: `code belongs to parameter "P1"`,
		},
		{
			name:      "empty value",
			mutate:    func(d *types.Dataset) { d.Values[1].Value = "" },
			wantTable: types.TableValues, wantField: "Value", wantMsg: "value rows must not be empty",
		},
		{
			name:      "missing value ID",
			mutate:    func(d *types.Dataset) { d.Values[1].ID = "" },
			wantTable: types.TableValues, wantField: "ID", wantMsg: "ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDataset()
			tt.mutate(d)

			result := NewValidator(d).ValidateAll()
			assert.False(t, result.IsValid)
			assert.Equal(t, 1, result.ErrorCount)

			errs := Validate(d)
			require.Len(t, errs, 1, FormatErrors(errs))
			assert.Equal(t, SeverityError, errs[0].Severity)
			assert.Equal(t, tt.wantTable, errs[0].Table)
			assert.Equal(t, tt.wantField, errs[0].Field)
			assert.Equal(t, tt.wantMsg, errs[0].Message)
		})
	}
}

func TestValidateUnobservedParameterIsWarning(t *testing.T) {
	d := validDataset()
	d.Parameters = append(d.Parameters, types.Parameter{ID: "P3"})

	result := NewValidator(d).ValidateAll()
	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.WarningCount)
	assert.Empty(t, result.Fatal())
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors([]*ValidationError{{
		Severity: SeverityError,
		Table:    types.TableValues,
		RowID:    "abcd-P1",
		Field:    "Code_ID",
		Value:    "C9",
		Message:  "unknown code",
	}})
	assert.Equal(t, "Validation completed with 1 error(s):\n\n"+
		"1. [ERROR] values \"abcd-P1\", field 'Code_ID': unknown code (value: 'C9')\n", out)
}
