package extract_test

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"prosody/internal/acoustics"
	"prosody/internal/audio"
	"prosody/internal/config"
	"prosody/internal/extract"
	"prosody/internal/pron"
	"prosody/internal/testsupport"
	"prosody/internal/textgrid"
)

// fakeEngine returns ten frames per window: a rising pitch ramp (or zeros
// for windows starting at or after silentFrom) and flat intensity.
type fakeEngine struct {
	silentFrom float64
	flatPitch  float64
}

func (fakeEngine) Name() string { return "fake" }

func (f fakeEngine) Analyze(_ context.Context, _ *audio.Sound, start, _ float64) (acoustics.Contours, error) {
	pitch := make([]float64, 10)
	intensity := make([]float64, 10)
	for i := range pitch {
		switch {
		case f.silentFrom > 0 && start >= f.silentFrom:
			pitch[i] = 0
		case f.flatPitch > 0:
			pitch[i] = f.flatPitch
		default:
			pitch[i] = 100 + 10*float64(i)
		}
		intensity[i] = 70
	}
	return acoustics.Contours{Pitch: pitch, Intensity: intensity}, nil
}

var dictLines = []string{
	"hello HH AH0 L OW1",
	"world W ER1 L D",
}

func writePair(t *testing.T, dir, name string, intervals ...textgrid.Interval) {
	t.Helper()
	testsupport.WriteTextGrid(t, filepath.Join(dir, name+".TextGrid"), "words", intervals...)
	testsupport.WriteWAV(t, filepath.Join(dir, name+".wav"), testsupport.Tone(200, 0.3, 1.0))
}

func newExtractor(t *testing.T, cfg *config.Config, engine acoustics.Engine) *extract.Extractor {
	t.Helper()
	var dict *pron.Dictionary
	if cfg.Paths.Dictionary != "" {
		var err error
		dict, err = pron.Load(cfg.Paths.Dictionary)
		if err != nil {
			t.Fatalf("load dictionary: %v", err)
		}
	}
	ex, err := extract.New(cfg, dict, engine, audio.NewLoader("ffmpeg", "ffprobe", nil), nil)
	if err != nil {
		t.Fatalf("extract.New: %v", err)
	}
	return ex
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func column(t *testing.T, records [][]string, name string) int {
	t.Helper()
	for i, col := range records[0] {
		if col == name {
			return i
		}
	}
	t.Fatalf("column %q not in header %v", name, records[0])
	return -1
}

func parseCell(t *testing.T, cell string) float64 {
	t.Helper()
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", cell, err)
	}
	return v
}

func TestRunWritesOneRowPerWordAcrossFiles(t *testing.T) {
	tests := []struct {
		name         string
		legendreOnly bool
		wantColumns  int
	}{
		{name: "legendre only", legendreOnly: true, wantColumns: 8},
		{name: "with statistics", legendreOnly: false, wantColumns: 14},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithDictionary(dictLines...))
			cfg.Extraction.LegendreOnly = tc.legendreOnly
			writePair(t, cfg.Paths.DataDir, "a", textgrid.Interval{Label: "hello", Start: 0, End: 0.5})
			writePair(t, cfg.Paths.DataDir, "b", textgrid.Interval{Label: "world", Start: 0.2, End: 0.7})

			res, err := newExtractor(t, cfg, fakeEngine{}).Run(context.Background())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Summary.Rows != 2 || res.Summary.Processed != 2 {
				t.Fatalf("unexpected summary %+v", res.Summary)
			}

			records := readCSV(t, cfg.Paths.OutPath)
			if len(records) != 3 {
				t.Fatalf("expected header + 2 rows, got %d", len(records))
			}
			if got := len(records[0]) - 1; got != tc.wantColumns {
				t.Fatalf("expected %d data columns, got %d (%v)", tc.wantColumns, got, records[0])
			}
			if records[1][1] != "a" || records[1][2] != "hello" || records[2][1] != "b" || records[2][2] != "world" {
				t.Fatalf("unexpected row order %v / %v", records[1][:3], records[2][:3])
			}

			// Flat intensity of 70 dB projects to c0 = 2*70.
			c0 := parseCell(t, records[1][column(t, records, "intensity_legendre_0")])
			if math.Abs(c0-140) > 1e-9 {
				t.Fatalf("intensity_legendre_0 = %v, want 140", c0)
			}

			if tc.legendreOnly {
				return
			}
			rateCol := column(t, records, "speak_rate")
			if got := parseCell(t, records[1][rateCol]); math.Abs(got-4) > 1e-9 {
				t.Fatalf("hello speak_rate = %v, want 2/0.5", got)
			}
			if got := parseCell(t, records[2][rateCol]); math.Abs(got-2) > 1e-9 {
				t.Fatalf("world speak_rate = %v, want 1/0.5", got)
			}
			if got := parseCell(t, records[1][column(t, records, "pitch_range")]); math.Abs(got-90) > 1e-9 {
				t.Fatalf("pitch_range = %v, want 90", got)
			}
		})
	}
}

func TestRunRecordsMissingDictionaryWordAsNaN(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDictionary(dictLines...))
	cfg.Extraction.LegendreOnly = false
	writePair(t, cfg.Paths.DataDir, "a",
		textgrid.Interval{Label: "hello", Start: 0, End: 0.5},
		textgrid.Interval{Label: "zzyzx", Start: 0.5, End: 1.0},
	)

	res, err := newExtractor(t, cfg, fakeEngine{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.MissingSpeakRates != 1 {
		t.Fatalf("expected one missing speaking rate, got %d", res.Summary.MissingSpeakRates)
	}
	records := readCSV(t, cfg.Paths.OutPath)
	if cell := records[2][column(t, records, "speak_rate")]; cell != "" {
		t.Fatalf("expected empty speak_rate, got %q", cell)
	}
	if cell := records[2][column(t, records, "f0_legendre_0")]; cell == "" {
		t.Fatal("coefficients should still be computed for the missing word")
	}
}

func TestRunUnvoicedWordWithoutZerosYieldsNaNCoefficients(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.KeepZeros = false
	writePair(t, cfg.Paths.DataDir, "a",
		textgrid.Interval{Label: "voiced", Start: 0, End: 0.5},
		textgrid.Interval{Label: "silent", Start: 0.5, End: 1.0},
	)

	res, err := newExtractor(t, cfg, fakeEngine{silentFrom: 0.5}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.Sentinels != 1 {
		t.Fatalf("expected one sentinel substitution, got %d", res.Summary.Sentinels)
	}
	row := res.Table.Rows[1]
	for k, v := range row.PitchLegendre {
		if !math.IsNaN(v) {
			t.Fatalf("f0_legendre_%d = %v, want NaN", k, v)
		}
	}
	if math.IsNaN(row.IntensityLegendre[0]) {
		t.Fatal("intensity coefficients should be unaffected")
	}
	if math.IsNaN(res.Table.Rows[0].PitchLegendre[0]) {
		t.Fatal("voiced word should have coefficients")
	}
}

func TestRunSkipsPairWithoutAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writePair(t, cfg.Paths.DataDir, "a", textgrid.Interval{Label: "hello", Start: 0, End: 0.5})
	testsupport.WriteTextGrid(t, filepath.Join(cfg.Paths.DataDir, "orphan.TextGrid"), "words",
		textgrid.Interval{Label: "lost", Start: 0, End: 0.5})

	res, err := newExtractor(t, cfg, fakeEngine{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Summary.Skipped != 1 || res.Summary.Processed != 1 || res.Summary.Rows != 1 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	if !strings.HasSuffix(res.Summary.SkippedFiles[0], "orphan.TextGrid") {
		t.Fatalf("unexpected skipped files %v", res.Summary.SkippedFiles)
	}
}

func TestRunAbortsOnFileErrorUnlessContinuing(t *testing.T) {
	setup := func(t *testing.T) *config.Config {
		cfg := testsupport.NewConfig(t)
		writePair(t, cfg.Paths.DataDir, "a", textgrid.Interval{Label: "hello", Start: 0, End: 0.5})
		bad := filepath.Join(cfg.Paths.DataDir, "b.TextGrid")
		testsupport.WriteTextGrid(t, bad, "phones", textgrid.Interval{Label: "HH", Start: 0, End: 0.1})
		testsupport.WriteWAV(t, filepath.Join(cfg.Paths.DataDir, "b.wav"), testsupport.Tone(200, 0.3, 0.5))
		return cfg
	}

	t.Run("abort", func(t *testing.T) {
		cfg := setup(t)
		_, err := newExtractor(t, cfg, fakeEngine{}).Run(context.Background())
		var fileErr *extract.FileError
		if !errors.As(err, &fileErr) {
			t.Fatalf("expected FileError, got %v", err)
		}
		if !strings.HasSuffix(fileErr.Path, "b.TextGrid") || !errors.Is(err, textgrid.ErrTierNotFound) {
			t.Fatalf("unexpected file error %v", fileErr)
		}
		if _, statErr := os.Stat(cfg.Paths.OutPath); !errors.Is(statErr, os.ErrNotExist) {
			t.Fatalf("no output expected after abort, stat err = %v", statErr)
		}
	})

	t.Run("continue", func(t *testing.T) {
		cfg := setup(t)
		cfg.Extraction.ContinueOnError = true
		res, err := newExtractor(t, cfg, fakeEngine{}).Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if res.Summary.Failed != 1 || res.Summary.Rows != 1 {
			t.Fatalf("unexpected summary %+v", res.Summary)
		}
	})
}

func TestCollectKeepsPairOrderWithWorkers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.Workers = 3
	names := []string{"s01", "s02", "s03", "s04", "s05"}
	for _, name := range names {
		writePair(t, cfg.Paths.DataDir, name,
			textgrid.Interval{Label: name + "-one", Start: 0, End: 0.4},
			textgrid.Interval{Label: name + "-two", Start: 0.4, End: 0.9},
		)
	}

	res, err := newExtractor(t, cfg, fakeEngine{}).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Table.Rows) != 2*len(names) {
		t.Fatalf("expected %d rows, got %d", 2*len(names), len(res.Table.Rows))
	}
	for i, row := range res.Table.Rows {
		wantName := names[i/2]
		if row.Filename != wantName || !strings.HasPrefix(row.Word, wantName) {
			t.Fatalf("row %d = %s/%s, want file %s", i, row.Filename, row.Word, wantName)
		}
	}
	if _, err := os.Stat(cfg.Paths.OutPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("Collect must not write output")
	}
}

func TestSpeakerNormalizationUsesSemitones(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.KeepZeros = false
	cfg.Extraction.Normalization = config.NormalizationSpeaker
	cfg.Extraction.ReferenceF0 = 100
	writePair(t, cfg.Paths.DataDir, "a", textgrid.Interval{Label: "hello", Start: 0, End: 0.5})

	res, err := newExtractor(t, cfg, fakeEngine{flatPitch: 200}).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	row := res.Table.Rows[0]
	// 200 Hz is 12 semitones above 100 Hz; a flat contour projects to 2*12.
	if math.Abs(row.PitchLegendre[0]-24) > 1e-9 {
		t.Fatalf("f0_legendre_0 = %v, want 24", row.PitchLegendre[0])
	}
	// Flat intensity has no spread, so the z-scores are undefined.
	if !math.IsNaN(row.IntensityLegendre[0]) {
		t.Fatalf("intensity_legendre_0 = %v, want NaN", row.IntensityLegendre[0])
	}
}

func TestNewRequiresDictionaryForStatistics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Extraction.LegendreOnly = false
	if _, err := extract.New(cfg, nil, fakeEngine{}, audio.NewLoader("ffmpeg", "ffprobe", nil), nil); err == nil {
		t.Fatal("expected missing dictionary to be rejected")
	}
}

func TestDiscoverPairsAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch := func(rel string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	touch("b/speaker2.textgrid")
	touch("b/speaker2.flac")
	touch("a/speaker1.TextGrid")
	touch("a/speaker1.wav")
	touch("a/speaker1.flac")
	touch("a/take.v2.TextGrid")
	touch("a/take.v2.wav")
	touch("c/orphan.TextGrid")
	touch("c/notes.txt")

	pairs, err := extract.Discover(dir, []string{".wav", ".flac"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(pairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d: %+v", len(pairs), pairs)
	}

	want := []struct {
		name    string
		audio   string
		missing bool
	}{
		{"speaker1", "a/speaker1.wav", false},
		{"take", "a/take.v2.wav", false},
		{"speaker2", "b/speaker2.flac", false},
		{"orphan", "", true},
	}
	for i, w := range want {
		got := pairs[i]
		if got.Name != w.name || got.Missing != w.missing {
			t.Fatalf("pair %d = %+v, want %+v", i, got, w)
		}
		if w.audio != "" && got.Audio != filepath.Join(dir, w.audio) {
			t.Fatalf("pair %d audio = %s, want %s", i, got.Audio, w.audio)
		}
	}
}

func TestDiscoverRejectsMissingDirectory(t *testing.T) {
	if _, err := extract.Discover(filepath.Join(t.TempDir(), "missing"), []string{".wav"}); err == nil {
		t.Fatal("expected error for missing data directory")
	}
}
