package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const textGridExt = ".textgrid"

// Pair is an annotation file and the recording it describes.
type Pair struct {
	// Name is the base name up to its first dot; it fills the filename column.
	Name     string
	TextGrid string
	// Audio is empty when Missing is set.
	Audio   string
	Missing bool
}

// Discover walks dataDir for TextGrid files (any extension case) and pairs
// each with the first existing sibling recording whose extension appears in
// audioExts. Pairs are returned sorted by TextGrid path; a pair without audio
// is returned with Missing set.
func Discover(dataDir string, audioExts []string) ([]Pair, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dataDir)
	}

	var pairs []Pair
	err = filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), textGridExt) {
			return nil
		}
		pairs = append(pairs, pairFor(path, audioExts))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dataDir, err)
	}

	slices.SortFunc(pairs, func(a, b Pair) int { return strings.Compare(a.TextGrid, b.TextGrid) })
	return pairs, nil
}

func pairFor(textGridPath string, audioExts []string) Pair {
	base := filepath.Base(textGridPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name, _, _ := strings.Cut(base, ".")

	pair := Pair{Name: name, TextGrid: textGridPath, Missing: true}
	dir := filepath.Dir(textGridPath)
	for _, ext := range audioExts {
		if audio, ok := findSibling(dir, stem, ext); ok {
			pair.Audio = audio
			pair.Missing = false
			break
		}
	}
	return pair
}

// findSibling looks for stem+ext, also trying the upper-case extension that
// some corpora use (.WAV).
func findSibling(dir, stem, ext string) (string, bool) {
	for _, candidate := range []string{ext, strings.ToUpper(ext)} {
		path := filepath.Join(dir, stem+candidate)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
