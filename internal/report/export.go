package report

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	_ "modernc.org/sqlite"

	"github.com/jpalmerr/sitepulse"
)

// Format identifies an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatSQLite  Format = "sqlite"
)

// FormatFor picks the export format from a file extension. Unknown and
// missing extensions fall back to CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

// Export writes the batch to path in the format chosen by [FormatFor].
//
// Existing files are replaced. Outcomes are written in index order.
func Export(path string, b sitepulse.BatchResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var err error
	switch FormatFor(path) {
	case FormatJSON:
		err = writeJSON(path, b)
	case FormatParquet:
		err = writeParquet(path, b)
	case FormatSQLite:
		err = writeSQLite(path, b)
	default:
		err = writeCSV(path, b)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, b sitepulse.BatchResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{ColumnIndex, ColumnURL, ColumnStatus, ColumnReason, ColumnElapsed}); err != nil {
		return err
	}
	for _, o := range b.Outcomes {
		if err := w.Write(NewRecord(o).Fields()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// jsonDocument is the top-level shape of a JSON export.
type jsonDocument struct {
	Total       int      `json:"total"`
	Interrupted bool     `json:"interrupted"`
	ElapsedS    string   `json:"elapsed_s"`
	Results     []Record `json:"results"`
}

func writeJSON(path string, b sitepulse.BatchResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	doc := jsonDocument{
		Total:       b.Len(),
		Interrupted: b.Interrupted,
		ElapsedS:    FormatSeconds(b.Elapsed),
		Results:     make([]Record, 0, b.Len()),
	}
	for _, o := range b.Outcomes {
		doc.Results = append(doc.Results, NewRecord(o))
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeParquet(path string, b sitepulse.BatchResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	writer := parquet.NewWriter(f, parquet.SchemaOf(Row{}), parquet.Compression(&parquet.Snappy))
	for _, o := range b.Outcomes {
		if err := writer.Write(NewRow(o)); err != nil {
			return fmt.Errorf("write row %d: %w", o.Index, err)
		}
	}
	return writer.Close()
}

const createResultsTable = `
CREATE TABLE results (
	no INTEGER PRIMARY KEY,
	url TEXT NOT NULL,
	kind TEXT NOT NULL,
	status_code INTEGER,
	reason TEXT NOT NULL,
	elapsed_seconds REAL,
	checked_at INTEGER NOT NULL
);`

func writeSQLite(path string, b sitepulse.BatchResult) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(createResultsTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO results (no, url, kind, status_code, reason, elapsed_seconds, checked_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, o := range b.Outcomes {
		row := NewRow(o)
		var status sql.NullInt32
		if row.StatusCode != nil {
			status = sql.NullInt32{Int32: *row.StatusCode, Valid: true}
		}
		var elapsed sql.NullFloat64
		if row.ElapsedSeconds != nil {
			elapsed = sql.NullFloat64{Float64: *row.ElapsedSeconds, Valid: true}
		}
		if _, err := stmt.Exec(row.Index, row.URL, row.Kind, status, row.Reason, elapsed, row.CheckedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %d: %w", o.Index, err)
		}
	}

	return tx.Commit()
}
