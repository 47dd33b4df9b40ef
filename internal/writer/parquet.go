package writer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Parquet writes one snappy-compressed file per table into Dir. Every
// column is optional; float columns are DOUBLE, everything else is UTF8.
type Parquet struct {
	Dir string
}

// Assemble implements Assembler.
func (w *Parquet) Assemble(ctx context.Context, d *types.Dataset) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, t := range d.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeParquetTable(filepath.Join(w.Dir, t.Name+".parquet"), t); err != nil {
			return err
		}
	}
	return nil
}

func writeParquetTable(path string, t types.Table) (err error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", path, cerr))
		}
	}()

	pw, err := writer.NewCSVWriter(parquetSchema(t.Columns), fw, 4)
	if err != nil {
		return fmt.Errorf("create writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range t.Rows {
		rec := make([]*string, len(row))
		for i, c := range row {
			if c.Valid {
				v := c.Value
				rec[i] = &v
			}
		}
		if err := pw.WriteString(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("stop writer %s: %w", path, err)
	}
	return nil
}

func parquetSchema(columns []types.Column) []string {
	meta := make([]string, len(columns))
	for i, c := range columns {
		name := parquetColumnName(c.Name, i)
		if c.Kind == types.KindFloat {
			meta[i] = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", name)
		} else {
			meta[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", name)
		}
	}
	return meta
}

// parquetColumnName makes a reference table header safe for the schema
// tag syntax, which splits on commas and equals signs.
func parquetColumnName(name string, i int) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', ';', ',', '=':
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = fmt.Sprintf("column_%d", i)
	}
	return clean
}
