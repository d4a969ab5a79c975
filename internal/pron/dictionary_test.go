package pron_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prosody/internal/pron"
)

const modernDict = `cat K AE1 T
dog D AO1 G
banana B AH0 N AE1 N AH0
read R EH1 D
read(2) R IY1 D
d'artagnan D AH0 R T AE1 NG Y AH0 N # french
`

const legacyDict = `;;; # CMUdict  --  Major Version: 0.07
;;;
CAT  K AE1 T
READ  R IY1 D
READ(1)  R EH1 D
TOMATO  T AH0 M EY1 T OW2
`

func TestParseModernLayout(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(modernDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dict.Len() != 5 {
		t.Fatalf("expected 5 headwords, got %d", dict.Len())
	}
	variants, err := dict.Pronunciations("read")
	if err != nil {
		t.Fatalf("Pronunciations: %v", err)
	}
	if len(variants) != 2 || strings.Join(variants[0], " ") != "R EH1 D" {
		t.Fatalf("unexpected variants: %v", variants)
	}
	phones, err := dict.Pronunciation("d'artagnan")
	if err != nil {
		t.Fatalf("Pronunciation: %v", err)
	}
	if phones[len(phones)-1] != "N" {
		t.Fatalf("trailing comment leaked into phones: %v", phones)
	}
}

func TestParseLegacyLayoutIsCaseInsensitive(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(legacyDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	phones, err := dict.Pronunciation("Read")
	if err != nil {
		t.Fatalf("Pronunciation: %v", err)
	}
	if strings.Join(phones, " ") != "R IY1 D" {
		t.Fatalf("expected first listed variant, got %v", phones)
	}
	n, err := dict.Syllables("tomato")
	if err != nil || n != 3 {
		t.Fatalf("Syllables(tomato) = %d, %v; want 3", n, err)
	}
}

func TestParseRejectsEntryWithoutPhones(t *testing.T) {
	if _, err := pron.Parse(strings.NewReader("cat K AE1 T\nlonely\n")); err == nil {
		t.Fatal("expected error for entry without phones")
	}
}

func TestSyllables(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(modernDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"banana", 3},
		{"CAT", 1},
	}
	for _, tt := range tests {
		got, err := dict.Syllables(tt.word)
		if err != nil {
			t.Fatalf("Syllables(%q): %v", tt.word, err)
		}
		if got != tt.want {
			t.Fatalf("Syllables(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
	if _, err := dict.Syllables("zyzzyva"); !errors.Is(err, pron.ErrWordNotFound) {
		t.Fatalf("expected ErrWordNotFound, got %v", err)
	}
}

func TestSpeakingRateIsExact(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(modernDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rate, err := dict.SpeakingRate("banana", 1.0, 1.5)
	if err != nil {
		t.Fatalf("SpeakingRate: %v", err)
	}
	if rate != 3/0.5 {
		t.Fatalf("SpeakingRate = %v, want %v", rate, 3/0.5)
	}
}

func TestSpeakingRateFailsOnZeroDuration(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(modernDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := dict.SpeakingRate("cat", 0.5, 0.5); !errors.Is(err, pron.ErrZeroDuration) {
		t.Fatalf("expected ErrZeroDuration, got %v", err)
	}
	if _, err := dict.SpeakingRate("cat", 0.7, 0.5); !errors.Is(err, pron.ErrZeroDuration) {
		t.Fatalf("expected ErrZeroDuration for negative duration, got %v", err)
	}
}

func TestSpeakingRateMissingWord(t *testing.T) {
	dict, err := pron.Parse(strings.NewReader(modernDict))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := dict.SpeakingRate("xylophone", 0, 1); !errors.Is(err, pron.ErrWordNotFound) {
		t.Fatalf("expected ErrWordNotFound, got %v", err)
	}
}

func TestCountSyllables(t *testing.T) {
	if got := pron.CountSyllables([]string{"K", "AE1", "T"}); got != 1 {
		t.Fatalf("CountSyllables = %d, want 1", got)
	}
	if got := pron.CountSyllables([]string{"HH", "M"}); got != 0 {
		t.Fatalf("CountSyllables = %d, want 0", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmudict.dict")
	if err := os.WriteFile(path, []byte(modernDict), 0o644); err != nil {
		t.Fatalf("write dict: %v", err)
	}
	dict, err := pron.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := dict.Pronunciation("dog"); err != nil {
		t.Fatalf("Pronunciation(dog): %v", err)
	}
	if _, err := pron.Load(filepath.Join(t.TempDir(), "missing.dict")); err == nil {
		t.Fatal("expected error for missing dictionary")
	}
}
