package table

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSchemaMismatch indicates an existing features table has different columns.
var ErrSchemaMismatch = errors.New("features table schema mismatch")

const runsTableSQL = `CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    data_dir TEXT NOT NULL,
    options TEXT NOT NULL
)`

// RunInfo identifies the run that produced a table.
type RunInfo struct {
	ID        string
	StartedAt time.Time
	DataDir   string
	Options   any
}

// WriteSQLite appends t to the features table of the database at path,
// creating the tables on first use. Each row carries the run id and its
// position; the run itself is recorded in runs. NaN values are stored as NULL.
func WriteSQLite(ctx context.Context, path string, t *Table, run RunInfo) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("encode run options: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, runsTableSQL); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, featuresTableSQL(t.Schema)); err != nil {
		return fmt.Errorf("create features table: %w", err)
	}
	if err := checkFeatureColumns(ctx, tx, t.Schema); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, data_dir, options) VALUES (?, ?, ?, ?)",
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.DataDir, string(options),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertFeatureSQL(t.Schema))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, 0, len(t.Schema.Columns())+2)
	for i, row := range t.Rows {
		args = args[:0]
		args = append(args, run.ID, i, row.Filename, row.Word)
		for _, v := range t.Schema.Values(row) {
			args = append(args, nullable(v))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func featureColumns(schema Schema) []string {
	return append([]string{"run_id", "row_index"}, schema.Columns()...)
}

func featuresTableSQL(schema Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS features (\n")
	b.WriteString("    run_id TEXT NOT NULL REFERENCES runs(id),\n")
	b.WriteString("    row_index INTEGER NOT NULL,\n")
	b.WriteString("    filename TEXT NOT NULL,\n")
	b.WriteString("    word TEXT NOT NULL,\n")
	for _, col := range schema.ValueColumns() {
		fmt.Fprintf(&b, "    %s REAL,\n", col)
	}
	b.WriteString("    PRIMARY KEY (run_id, row_index)\n)")
	return b.String()
}

func insertFeatureSQL(schema Schema) string {
	cols := featureColumns(schema)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO features (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders)
}

func checkFeatureColumns(ctx context.Context, tx *sql.Tx, schema Schema) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA table_info(features)")
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	if expected := featureColumns(schema); !slices.Equal(columns, expected) {
		return fmt.Errorf("%w: database has %v, run produces %v (write to a new database)",
			ErrSchemaMismatch, columns, expected)
	}
	return nil
}

func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
