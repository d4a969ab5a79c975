package pron

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var (
	// ErrWordNotFound is returned when a word has no dictionary entry.
	ErrWordNotFound = errors.New("word not in pronunciation dictionary")
	// ErrZeroDuration is returned when a speaking rate is requested for an
	// interval whose duration is not positive.
	ErrZeroDuration = errors.New("interval duration is not positive")
)

// Dictionary maps case-folded words to their pronunciations in file order.
// It is immutable after Parse and safe for concurrent readers.
type Dictionary struct {
	entries map[string][][]string
}

// Load reads a CMUdict-format file.
func Load(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer file.Close()

	dict, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse dictionary %s: %w", path, err)
	}
	return dict, nil
}

// Parse reads CMUdict entries. Both the cmudict.dict layout (lowercase
// words, "word(2)" variants, trailing "# comment") and the cmudict-0.7b
// layout (uppercase words, ";;;" comment lines, "WORD(1)" variants) are
// accepted.
func Parse(r io.Reader) (*Dictionary, error) {
	dict := &Dictionary{entries: make(map[string][][]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.HasPrefix(line, ";;;") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) == 1 {
			return nil, fmt.Errorf("line %d: entry %q has no phones", lineNo, fields[0])
		}
		key := foldWord(stripVariant(fields[0]))
		if key == "" {
			return nil, fmt.Errorf("line %d: empty headword", lineNo)
		}
		phones := append([]string(nil), fields[1:]...)
		dict.entries[key] = append(dict.entries[key], phones)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dict, nil
}

// stripVariant removes a trailing "(n)" variant marker.
func stripVariant(word string) string {
	open := strings.LastIndexByte(word, '(')
	if open <= 0 || !strings.HasSuffix(word, ")") {
		return word
	}
	digits := word[open+1 : len(word)-1]
	if digits == "" {
		return word
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return word
		}
	}
	return word[:open]
}

func foldWord(word string) string {
	return cases.Fold().String(strings.TrimSpace(word))
}

// Len returns the number of distinct headwords.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Pronunciations returns every variant for word in file order.
func (d *Dictionary) Pronunciations(word string) ([][]string, error) {
	if d == nil {
		return nil, ErrWordNotFound
	}
	variants, ok := d.entries[foldWord(word)]
	if !ok || len(variants) == 0 {
		return nil, fmt.Errorf("%q: %w", word, ErrWordNotFound)
	}
	return variants, nil
}

// Pronunciation returns the first listed variant for word.
func (d *Dictionary) Pronunciation(word string) ([]string, error) {
	variants, err := d.Pronunciations(word)
	if err != nil {
		return nil, err
	}
	return variants[0], nil
}

// Syllables counts the stress-marked phones of the first pronunciation.
func (d *Dictionary) Syllables(word string) (int, error) {
	phones, err := d.Pronunciation(word)
	if err != nil {
		return 0, err
	}
	return CountSyllables(phones), nil
}

// SpeakingRate returns syllables per second for word spoken between start
// and end (seconds).
func (d *Dictionary) SpeakingRate(word string, start, end float64) (float64, error) {
	duration := end - start
	if !(duration > 0) {
		return 0, fmt.Errorf("%q [%g, %g]: %w", word, start, end, ErrZeroDuration)
	}
	syllables, err := d.Syllables(word)
	if err != nil {
		return 0, err
	}
	return float64(syllables) / duration, nil
}

// CountSyllables counts phones whose final character is a stress digit.
func CountSyllables(phones []string) int {
	count := 0
	for _, phone := range phones {
		if phone == "" {
			continue
		}
		last := phone[len(phone)-1]
		if last >= '0' && last <= '9' {
			count++
		}
	}
	return count
}
