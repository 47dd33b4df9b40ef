package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRow(t *testing.T) {
	row := RawRow{Line: 4, Cells: map[string]string{"ID": "abcd", "Name": "Lang1", "P1": "foo"}}

	assert.Equal(t, "abcd", row.ID())
	assert.Equal(t, "Lang1", row.Name())
	v, ok := row.Cell("P1")
	assert.True(t, ok)
	assert.Equal(t, "foo", v)
	_, ok = row.Cell("P2")
	assert.False(t, ok)
}

func TestPtrDeref(t *testing.T) {
	assert.Equal(t, "x", Deref(Ptr("x")))
	assert.Equal(t, "", Deref(nil))
}

func TestTables(t *testing.T) {
	paramColumns := []string{"ID", "Name", "Description"}
	d := &Dataset{
		Languages: []Language{
			{ID: "abcd", Name: "Lang1", Latitude: Ptr("10"), Longitude: Ptr("20")},
			{ID: "xyz", Name: "Lang2", Glottocode: Ptr("xyza0001"), Source: []string{"A", "B"}},
		},
		Parameters: []Parameter{
			{ID: "P1", Record: Record{Columns: paramColumns, Values: map[string]string{"ID": "P1", "Name": "Word order", "Description": ""}}},
		},
		Codes: []Code{
			{ID: "C1", ParameterID: "P1", Record: Record{Columns: []string{"ID", "Parameter_ID"}, Values: map[string]string{"ID": "C1", "Parameter_ID": "P1"}}},
		},
		Values: []Value{
			{ID: "abcd-P1", LanguageID: "abcd", ParameterID: "P1", CodeID: "C1", Value: "foo"},
			{ID: "xyz-P1", LanguageID: "xyz", ParameterID: "P1", Value: "bar"},
		},
		ParameterColumns: paramColumns,
		CodeColumns:      []string{"ID", "Parameter_ID"},
	}

	tables := d.Tables()
	require.Len(t, tables, 4)

	names := []string{tables[0].Name, tables[1].Name, tables[2].Name, tables[3].Name}
	assert.Equal(t, []string{TableLanguages, TableParameters, TableCodes, TableValues}, names)

	languages := tables[0]
	assert.Equal(t, LanguageColumns, languages.Columns)
	assert.Equal(t, Cell{Value: "10", Valid: true}, languages.Rows[0][5])
	assert.Equal(t, Cell{}, languages.Rows[0][2], "absent glottocode is null")
	assert.Equal(t, Cell{}, languages.Rows[0][7], "empty source list is null")
	assert.Equal(t, Cell{Value: "A;B", Valid: true}, languages.Rows[1][7])

	params := tables[1]
	assert.Equal(t, "Description", params.Columns[2].Name)
	assert.Equal(t, Cell{}, params.Rows[0][2], "empty reference value is null")

	codes := tables[2]
	assert.Equal(t, "parameters.ID", codes.Columns[1].References)
	assert.Equal(t, "", codes.Columns[0].References)

	values := tables[3]
	assert.Equal(t, Cell{Value: "C1", Valid: true}, values.Rows[0][3])
	assert.Equal(t, Cell{}, values.Rows[1][3], "unresolved code is null")
	assert.Equal(t, "ID", values.PrimaryKey)
}
