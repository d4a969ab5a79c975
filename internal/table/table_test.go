package table_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"prosody/internal/table"
)

func sampleTable(legendreOnly bool) *table.Table {
	tbl := table.New(table.NewSchema(3, legendreOnly))
	tbl.Append(
		table.Row{
			Filename:          "speaker01",
			Word:              "hello",
			PitchLegendre:     []float64{240, -1.5, 0.25},
			IntensityLegendre: []float64{130, 2, math.NaN()},
			MeanPitch:         120,
			PitchRange:        30,
			PitchSD:           8.5,
			MeanIntensity:     65,
			IntensityRange:    12,
			SpeakRate:         4,
		},
		table.NaNRow("speaker01", "zzz", 3),
	)
	return tbl
}

func TestSchemaColumns(t *testing.T) {
	tests := []struct {
		name         string
		order        int
		legendreOnly bool
		want         []string
	}{
		{
			name:         "legendre only",
			order:        3,
			legendreOnly: true,
			want: []string{"filename", "word",
				"f0_legendre_0", "f0_legendre_1", "f0_legendre_2",
				"intensity_legendre_0", "intensity_legendre_1", "intensity_legendre_2"},
		},
		{
			name:         "with statistics",
			order:        1,
			legendreOnly: false,
			want: []string{"filename", "word", "f0_legendre_0", "intensity_legendre_0",
				"mean_pitch", "pitch_range", "pitch_sd", "mean_intensity", "intensity_range", "speak_rate"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := table.NewSchema(tc.order, tc.legendreOnly).Columns()
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("columns = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSchemaValuesPadsShortCoefficients(t *testing.T) {
	schema := table.NewSchema(3, true)
	values := schema.Values(table.Row{PitchLegendre: []float64{1}, IntensityLegendre: []float64{2, 3, 4}})
	if len(values) != 6 {
		t.Fatalf("expected 6 values, got %d", len(values))
	}
	if values[0] != 1 || !math.IsNaN(values[1]) || !math.IsNaN(values[2]) || values[5] != 4 {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestWriteCSVMatchesDataFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, sampleTable(false)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	header := records[0]
	if header[0] != "" || header[1] != "filename" || header[len(header)-1] != "speak_rate" {
		t.Fatalf("unexpected header %v", header)
	}
	if len(header) != 15 {
		t.Fatalf("expected index + 14 columns, got %d", len(header))
	}

	first := records[1]
	if first[0] != "0" || first[1] != "speaker01" || first[2] != "hello" {
		t.Fatalf("unexpected leading cells %v", first[:3])
	}
	if first[3] != "240" || first[4] != "-1.5" || first[8] != "" {
		t.Fatalf("unexpected coefficient cells %v", first[3:9])
	}
	if first[len(first)-1] != "4" {
		t.Fatalf("unexpected speak_rate %q", first[len(first)-1])
	}

	second := records[2]
	if second[0] != "1" {
		t.Fatalf("expected index 1, got %q", second[0])
	}
	for i, cell := range second[3:] {
		if cell != "" {
			t.Fatalf("column %s should be empty, got %q", header[i+3], cell)
		}
	}
}

func TestWriteFileCSVIsAtomicAndLocked(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "features.csv")

	if err := table.WriteFile(context.Background(), out, sampleTable(true), table.RunInfo{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if got := len(strings.Split(lines[0], ",")); got != 9 {
		t.Fatalf("expected index + 8 columns, got %d", got)
	}

	held := flock.New(table.LockPath(out))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	err = table.WriteFile(context.Background(), out, sampleTable(true), table.RunInfo{})
	if !errors.Is(err, table.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestWriteSQLiteAppendsRunsAndStoresNaNAsNull(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "features.db")
	run := table.RunInfo{
		ID:        "run-1",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		DataDir:   "/data",
		Options:   map[string]any{"tier_name": "words"},
	}

	if err := table.WriteFile(context.Background(), out, sampleTable(false), run); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	run.ID = "run-2"
	if err := table.WriteFile(context.Background(), out, sampleTable(false), run); err != nil {
		t.Fatalf("second WriteFile: %v", err)
	}

	db, err := sql.Open("sqlite", out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var runs, rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM features").Scan(&rows); err != nil {
		t.Fatalf("count features: %v", err)
	}
	if runs != 2 || rows != 4 {
		t.Fatalf("expected 2 runs and 4 rows, got %d and %d", runs, rows)
	}

	var (
		word      string
		speakRate sql.NullFloat64
		c2        sql.NullFloat64
	)
	err = db.QueryRow("SELECT word, speak_rate, intensity_legendre_2 FROM features WHERE run_id = ? AND row_index = 0", "run-1").
		Scan(&word, &speakRate, &c2)
	if err != nil {
		t.Fatalf("select row: %v", err)
	}
	if word != "hello" || !speakRate.Valid || speakRate.Float64 != 4 {
		t.Fatalf("unexpected row %q %v", word, speakRate)
	}
	if c2.Valid {
		t.Fatalf("expected NaN stored as NULL, got %v", c2.Float64)
	}

	var options string
	if err := db.QueryRow("SELECT options FROM runs WHERE id = 'run-1'").Scan(&options); err != nil {
		t.Fatalf("select options: %v", err)
	}
	if !strings.Contains(options, `"tier_name":"words"`) {
		t.Fatalf("unexpected options %s", options)
	}
}

func TestWriteSQLiteRejectsDifferentSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "features.sqlite")
	if err := table.WriteSQLite(context.Background(), out, sampleTable(true), table.RunInfo{ID: "a"}); err != nil {
		t.Fatalf("WriteSQLite: %v", err)
	}
	err := table.WriteSQLite(context.Background(), out, sampleTable(false), table.RunInfo{ID: "b"})
	if !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestIsSQLitePath(t *testing.T) {
	for path, want := range map[string]bool{
		"out.csv":     false,
		"out.DB":      true,
		"out.sqlite":  true,
		"out.sqlite3": true,
		"out":         false,
	} {
		if got := table.IsSQLitePath(path); got != want {
			t.Fatalf("IsSQLitePath(%q) = %v, want %v", path, got, want)
		}
	}
}
