package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/xuri/excelize/v2"
)

// XLSX writes the dataset as one workbook with a sheet per table. Float
// columns are stored as numbers; null cells are left blank.
type XLSX struct {
	Path string
}

// Assemble implements Assembler.
func (w *XLSX) Assemble(ctx context.Context, d *types.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(w.Path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range d.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// A new workbook starts with one default sheet; reuse it.
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, t types.Table) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", t.Name, err)
	}

	for r, row := range t.Rows {
		values := make([]interface{}, len(row))
		for i, c := range row {
			switch {
			case !c.Valid:
				values[i] = nil
			case t.Columns[i].Kind == types.KindFloat:
				v, err := floatValue(t.Name, t.Columns[i], c)
				if err != nil {
					return err
				}
				values[i] = v
			default:
				values[i] = c.Value
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", t.Name, r+1, err)
		}
	}

	return nil
}
