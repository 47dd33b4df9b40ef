package writer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/ginjaninja78/structure-dataset/pkg/utils"
)

const (
	// MetadataFile is the name of the table group description.
	MetadataFile = "StructureDataset-metadata.json"

	// SourcesFile is the name the bibliography is copied to.
	SourcesFile = "sources.bib"
)

// CSVDir writes one CSV file per table into Dir, together with a CSVW
// metadata file that declares columns, primary keys and foreign keys.
type CSVDir struct {
	Dir string
}

// Assemble implements Assembler.
func (w *CSVDir) Assemble(ctx context.Context, d *types.Dataset) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tables := d.Tables()
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeCSVTable(filepath.Join(w.Dir, t.Name+".csv"), t); err != nil {
			return err
		}
	}

	meta := buildMetadata(d, tables)
	if d.SourcesFile != "" {
		if err := utils.CopyFile(d.SourcesFile, filepath.Join(w.Dir, SourcesFile)); err != nil {
			return fmt.Errorf("failed to copy sources: %w", err)
		}
		meta.Source = SourcesFile
	}

	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.Dir, MetadataFile), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

func writeCSVTable(path string, t types.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			record[i] = c.Value
			if !c.Valid {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// =============================================================================
// METADATA
// =============================================================================

const (
	csvwContext      = "http://www.w3.org/ns/csvw"
	structureDataset = "http://cldf.clld.org/v1.0/terms.rdf#StructureDataset"
)

type metadata struct {
	Context    string          `json:"@context"`
	ConformsTo string          `json:"dc:conformsTo"`
	Identifier string          `json:"dc:identifier,omitempty"`
	Source     string          `json:"dc:source,omitempty"`
	Tables     []tableMetadata `json:"tables"`
}

type tableMetadata struct {
	URL         string      `json:"url"`
	TableSchema tableSchema `json:"tableSchema"`
}

type tableSchema struct {
	Columns     []columnMetadata `json:"columns"`
	PrimaryKey  []string         `json:"primaryKey"`
	ForeignKeys []foreignKey     `json:"foreignKeys,omitempty"`
}

type columnMetadata struct {
	Name      string `json:"name"`
	Datatype  string `json:"datatype"`
	Separator string `json:"separator,omitempty"`
}

type foreignKey struct {
	ColumnReference []string    `json:"columnReference"`
	Reference       fkReference `json:"reference"`
}

type fkReference struct {
	Resource        string   `json:"resource"`
	ColumnReference []string `json:"columnReference"`
}

func buildMetadata(d *types.Dataset, tables []types.Table) metadata {
	meta := metadata{
		Context:    csvwContext,
		ConformsTo: structureDataset,
		Identifier: d.ID,
	}

	for _, t := range tables {
		tm := tableMetadata{
			URL:         t.Name + ".csv",
			TableSchema: tableSchema{PrimaryKey: []string{t.PrimaryKey}},
		}
		for _, c := range t.Columns {
			cm := columnMetadata{Name: c.Name, Datatype: "string"}
			switch c.Kind {
			case types.KindFloat:
				cm.Datatype = "decimal"
			case types.KindList:
				cm.Separator = types.SourceSeparator
			}
			tm.TableSchema.Columns = append(tm.TableSchema.Columns, cm)

			if c.References != "" {
				refTable, refColumn := splitReference(c.References)
				tm.TableSchema.ForeignKeys = append(tm.TableSchema.ForeignKeys, foreignKey{
					ColumnReference: []string{c.Name},
					Reference: fkReference{
						Resource:        refTable + ".csv",
						ColumnReference: []string{refColumn},
					},
				})
			}
		}
		meta.Tables = append(meta.Tables, tm)
	}

	return meta
}
