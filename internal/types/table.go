package types

import "strings"

// Table names, in emission order.
const (
	TableLanguages  = "languages"
	TableParameters = "parameters"
	TableCodes      = "codes"
	TableValues     = "values"
)

// SourceSeparator joins the Source list in flat outputs.
const SourceSeparator = ";"

// ColumnKind tells typed assemblers how to store a column.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindFloat
	KindList
)

// Column describes one output column.
type Column struct {
	Name string
	Kind ColumnKind

	// References is "table.column" for foreign keys, or "".
	References string
}

// Cell is one output value. Valid is false for absent values.
type Cell struct {
	Value string
	Valid bool
}

// Table is the flat rendering of one dataset table.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey string
	Rows       [][]Cell
}

// LanguageColumns is the column set of the language table.
var LanguageColumns = []Column{
	{Name: "ID"},
	{Name: "Name"},
	{Name: "Glottocode"},
	{Name: "ISO639P3code"},
	{Name: "Macroarea"},
	{Name: "Latitude", Kind: KindFloat},
	{Name: "Longitude", Kind: KindFloat},
	{Name: "Source", Kind: KindList},
}

// ValueColumns is the column set of the value table.
var ValueColumns = []Column{
	{Name: "ID"},
	{Name: "Language_ID", References: TableLanguages + ".ID"},
	{Name: "Parameter_ID", References: TableParameters + ".ID"},
	{Name: "Code_ID", References: TableCodes + ".ID"},
	{Name: "Value"},
}

// Tables renders the dataset as four flat tables: languages, parameters,
// codes, values. Row order follows the dataset slices.
func (d *Dataset) Tables() []Table {
	return []Table{
		d.languageTable(),
		recordTable(TableParameters, d.ParameterColumns, parameterRecords(d.Parameters), nil),
		recordTable(TableCodes, d.CodeColumns, codeRecords(d.Codes), map[string]string{
			"Parameter_ID": TableParameters + ".ID",
		}),
		d.valueTable(),
	}
}

func (d *Dataset) languageTable() Table {
	t := Table{Name: TableLanguages, Columns: LanguageColumns, PrimaryKey: "ID"}
	for _, l := range d.Languages {
		t.Rows = append(t.Rows, []Cell{
			cell(l.ID),
			cell(l.Name),
			optCell(l.Glottocode),
			optCell(l.ISO639P3code),
			optCell(l.Macroarea),
			optCell(l.Latitude),
			optCell(l.Longitude),
			listCell(l.Source),
		})
	}
	return t
}

func (d *Dataset) valueTable() Table {
	t := Table{Name: TableValues, Columns: ValueColumns, PrimaryKey: "ID"}
	for _, v := range d.Values {
		t.Rows = append(t.Rows, []Cell{
			cell(v.ID),
			cell(v.LanguageID),
			cell(v.ParameterID),
			// An unresolved code is stored as null so that foreign keys hold.
			{Value: v.CodeID, Valid: v.CodeID != ""},
			cell(v.Value),
		})
	}
	return t
}

func recordTable(name string, columns []string, records []Record, refs map[string]string) Table {
	t := Table{Name: name, PrimaryKey: "ID"}
	for _, c := range columns {
		t.Columns = append(t.Columns, Column{Name: c, References: refs[c]})
	}
	for _, r := range records {
		row := make([]Cell, len(columns))
		for i, c := range columns {
			v, ok := r.Values[c]
			row[i] = Cell{Value: v, Valid: ok && v != ""}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func parameterRecords(params []Parameter) []Record {
	out := make([]Record, len(params))
	for i, p := range params {
		out[i] = p.Record
	}
	return out
}

func codeRecords(codes []Code) []Record {
	out := make([]Record, len(codes))
	for i, c := range codes {
		out[i] = c.Record
	}
	return out
}

func cell(s string) Cell {
	return Cell{Value: s, Valid: true}
}

func optCell(s *string) Cell {
	if s == nil {
		return Cell{}
	}
	return Cell{Value: *s, Valid: true}
}

func listCell(items []string) Cell {
	if len(items) == 0 {
		return Cell{}
	}
	return Cell{Value: strings.Join(items, SourceSeparator), Valid: true}
}
