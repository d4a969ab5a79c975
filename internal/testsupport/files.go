package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prosody/internal/audio"
	"prosody/internal/textgrid"
)

// SampleRate is the rate used by the synthetic recordings.
const SampleRate = 16000

// Tone returns seconds of a sine wave at freq Hz.
func Tone(freq, amplitude, seconds float64) []float64 {
	n := int(math.Round(seconds * SampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/SampleRate)
	}
	return out
}

// Silence returns seconds of zeros.
func Silence(seconds float64) []float64 {
	return make([]float64, int(math.Round(seconds*SampleRate)))
}

// Concat joins signals end to end.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// WriteWAV writes samples as a 16-bit mono WAV file at SampleRate.
func WriteWAV(t testing.TB, path string, samples []float64) {
	t.Helper()

	mkdirFor(t, path)
	snd := &audio.Sound{Samples: samples, SampleRate: SampleRate}
	if err := audio.WriteWAV(path, snd); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// WriteTextGrid writes a single-tier TextGrid covering the given intervals.
func WriteTextGrid(t testing.TB, path, tier string, intervals ...textgrid.Interval) {
	t.Helper()

	mkdirFor(t, path)
	var end float64
	for _, iv := range intervals {
		end = math.Max(end, iv.End)
	}
	tg := &textgrid.TextGrid{
		End: end,
		Tiers: []textgrid.Tier{{
			Class:     textgrid.ClassInterval,
			Name:      tier,
			End:       end,
			Intervals: intervals,
		}},
	}
	if err := textgrid.WriteFile(path, tg); err != nil {
		t.Fatalf("write textgrid %s: %v", path, err)
	}
}

// WriteDictionary writes a CMUdict-format file from "word PH1 ..." lines.
func WriteDictionary(t testing.TB, path string, lines ...string) {
	t.Helper()

	mkdirFor(t, path)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write dictionary %s: %v", path, err)
	}
}

func mkdirFor(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
