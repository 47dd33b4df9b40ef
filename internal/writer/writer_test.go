package writer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/structure-dataset/internal/types"
)

func testDataset(t *testing.T) *types.Dataset {
	t.Helper()

	paramColumns := []string{"ID", "Name"}
	codeColumns := []string{"ID", "Parameter_ID", "Old_Name", "Name"}
	rec := func(columns []string, values ...string) types.Record {
		r := types.Record{Columns: columns, Values: map[string]string{}}
		for i, v := range values {
			r.Values[columns[i]] = v
		}
		return r
	}

	return &types.Dataset{
		ID: "test",
		Languages: []types.Language{
			{ID: "abcd", Name: "Lang1", Latitude: types.Ptr("10"), Longitude: types.Ptr("20")},
			{ID: "xyz", Name: "Lang2", Glottocode: types.Ptr("xyza0001"), ISO639P3code: types.Ptr("xyz"),
				Source: []string{"Smith2000", "Doe2001"}},
		},
		Parameters: []types.Parameter{
			{ID: "P1", Record: rec(paramColumns, "P1", "Word order")},
			{ID: "P2", Record: rec(paramColumns, "P2", "Gender")},
		},
		Codes: []types.Code{
			{ID: "C1", ParameterID: "P1", OldName: "foo", Record: rec(codeColumns, "C1", "P1", "foo", "Foo")},
		},
		Values: []types.Value{
			{ID: "abcd-P1", LanguageID: "abcd", ParameterID: "P1", CodeID: "C1", Value: "foo"},
			{ID: "xyz-P2", LanguageID: "xyz", ParameterID: "P2", Value: "m/f"},
		},
		ParameterColumns: paramColumns,
		CodeColumns:      codeColumns,
	}
}

func TestNew(t *testing.T) {
	out, err := New("SQLite", "/out", "wals")
	require.NoError(t, err)
	assert.Equal(t, FormatSQLite, out.Format)
	assert.Equal(t, filepath.Join("/out", "wals.sqlite"), out.Path)
	assert.IsType(t, &SQLite{}, out.Assembler)

	_, err = New("xml", "/out", "wals")
	assert.ErrorContains(t, err, "unsupported output format")

	outs, err := NewAll(Formats, "/out", "")
	require.NoError(t, err)
	require.Len(t, outs, 4)
	assert.Equal(t, filepath.Join("/out", "dataset.xlsx"), outs[1].Path)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVDir(t *testing.T) {
	dir := t.TempDir()
	d := testDataset(t)
	d.SourcesFile = filepath.Join(dir, "refs.bib")
	require.NoError(t, os.WriteFile(d.SourcesFile, []byte("@book{Smith2000}\n"), 0644))

	out := filepath.Join(dir, "cldf")
	require.NoError(t, (&CSVDir{Dir: out}).Assemble(context.Background(), d))

	languages := readCSV(t, filepath.Join(out, "languages.csv"))
	assert.Equal(t, []string{"ID", "Name", "Glottocode", "ISO639P3code", "Macroarea", "Latitude", "Longitude", "Source"}, languages[0])
	assert.Equal(t, []string{"xyz", "Lang2", "xyza0001", "xyz", "", "", "", "Smith2000;Doe2001"}, languages[2])

	values := readCSV(t, filepath.Join(out, "values.csv"))
	assert.Equal(t, [][]string{
		{"ID", "Language_ID", "Parameter_ID", "Code_ID", "Value"},
		{"abcd-P1", "abcd", "P1", "C1", "foo"},
		{"xyz-P2", "xyz", "P2", "", "m/f"},
	}, values)

	codes := readCSV(t, filepath.Join(out, "codes.csv"))
	assert.Equal(t, []string{"C1", "P1", "foo", "Foo"}, codes[1])

	bib, err := os.ReadFile(filepath.Join(out, SourcesFile))
	require.NoError(t, err)
	assert.Equal(t, "@book{Smith2000}\n", string(bib))

	raw, err := os.ReadFile(filepath.Join(out, MetadataFile))
	require.NoError(t, err)
	var meta metadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "test", meta.Identifier)
	assert.Equal(t, SourcesFile, meta.Source)
	require.Len(t, meta.Tables, 4)
	assert.Equal(t, "values.csv", meta.Tables[3].URL)
	assert.Len(t, meta.Tables[3].TableSchema.ForeignKeys, 3)
	assert.Equal(t, "decimal", meta.Tables[0].TableSchema.Columns[5].Datatype)
	assert.Equal(t, ";", meta.Tables[0].TableSchema.Columns[7].Separator)
}

func TestCSVDirCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&CSVDir{Dir: t.TempDir()}).Assemble(ctx, testDataset(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "test.xlsx")
	require.NoError(t, (&XLSX{Path: path}).Assemble(context.Background(), testDataset(t)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"languages", "parameters", "codes", "values"}, f.GetSheetList())

	rows, err := f.GetRows("values")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"abcd-P1", "abcd", "P1", "C1", "foo"}, rows[1])

	lat, err := f.GetCellValue("languages", "F2")
	require.NoError(t, err)
	assert.Equal(t, "10", lat)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	w := &SQLite{Path: path}
	require.NoError(t, w.Assemble(context.Background(), testDataset(t)))
	// A second run replaces the database.
	require.NoError(t, w.Assemble(context.Background(), testDataset(t)))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "values"`).Scan(&count))
	assert.Equal(t, 2, count)

	var nullCodes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "values" WHERE "Code_ID" IS NULL`).Scan(&nullCodes))
	assert.Equal(t, 1, nullCodes)

	var latType string
	require.NoError(t, db.QueryRow(`SELECT typeof("Latitude") FROM "languages" WHERE "ID" = 'abcd'`).Scan(&latType))
	assert.Equal(t, "real", latType)
}

func TestSQLiteForeignKeyViolation(t *testing.T) {
	d := testDataset(t)
	d.Values = append(d.Values, types.Value{ID: "nope-P1", LanguageID: "nope", ParameterID: "P1", Value: "x"})

	err := (&SQLite{Path: filepath.Join(t.TempDir(), "bad.sqlite")}).Assemble(context.Background(), d)
	assert.ErrorContains(t, err, "failed to insert into values")
}

func TestParquet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, (&Parquet{Dir: dir}).Assemble(context.Background(), testDataset(t)))

	for name, rows := range map[string]int64{"languages": 2, "parameters": 2, "codes": 1, "values": 2} {
		fr, err := local.NewLocalFileReader(filepath.Join(dir, name+".parquet"))
		require.NoError(t, err)

		pr, err := reader.NewParquetReader(fr, nil, 1)
		require.NoError(t, err)
		assert.Equal(t, rows, pr.GetNumRows(), name)

		pr.ReadStop()
		require.NoError(t, fr.Close())
	}
}

func TestParquetColumnName(t *testing.T) {
	assert.Equal(t, "Old_Name", parquetColumnName("Old Name", 0))
	assert.Equal(t, "a_b", parquetColumnName("a=b", 1))
	assert.Equal(t, "column_2", parquetColumnName("", 2))
}
