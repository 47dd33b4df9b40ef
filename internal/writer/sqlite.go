package writer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/structure-dataset/internal/types"

	_ "modernc.org/sqlite"
)

// SQLite writes the dataset into a fresh database at Path. Each table gets
// a TEXT primary key, REAL coordinates and enforced foreign keys. Any
// existing file at Path is replaced.
type SQLite struct {
	Path string
}

// Assemble implements Assembler.
func (w *SQLite) Assemble(ctx context.Context, d *types.Dataset) error {
	if err := os.MkdirAll(filepath.Dir(w.Path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.Remove(w.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old database: %w", err)
	}

	db, err := sql.Open("sqlite", w.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// PRAGMA foreign_keys is per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Tables are created and filled in dependency order.
	for _, t := range d.Tables() {
		if _, err := tx.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		if err := insertRows(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return db.Close()
}

func createTableSQL(t types.Table) string {
	var defs []string
	var fks []string
	for _, c := range t.Columns {
		typ := "TEXT"
		if c.Kind == types.KindFloat {
			typ = "REAL"
		}
		def := fmt.Sprintf("%q %s", c.Name, typ)
		if c.Name == t.PrimaryKey {
			def += " PRIMARY KEY NOT NULL"
		}
		defs = append(defs, def)

		if c.References != "" {
			refTable, refColumn := splitReference(c.References)
			fks = append(fks, fmt.Sprintf("FOREIGN KEY (%q) REFERENCES %q (%q)", c.Name, refTable, refColumn))
		}
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", t.Name, strings.Join(append(defs, fks...), ", "))
}

func insertRows(ctx context.Context, tx *sql.Tx, t types.Table) error {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = fmt.Sprintf("%q", c.Name)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", t.Name, strings.Join(cols, ","), ph))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", t.Name, err)
	}
	defer stmt.Close()

	for _, row := range t.Rows {
		args := make([]any, len(row))
		for i, c := range row {
			switch {
			case !c.Valid:
				args[i] = nil
			case t.Columns[i].Kind == types.KindFloat:
				if args[i], err = floatValue(t.Name, t.Columns[i], c); err != nil {
					return err
				}
			default:
				args[i] = c.Value
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.Name, err)
		}
	}
	return nil
}
