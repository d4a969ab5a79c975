// Package textgrid reads and writes Praat TextGrid annotation files.
//
// Both text layouts Praat produces are understood: the long layout with
// "xmin = ..." labels and the short layout that lists bare values. Files may
// be UTF-8 (optionally with a BOM) or UTF-16 with a BOM. Binary TextGrids
// are rejected with a ParseError.
//
// Callers usually need only IntervalsFor, which returns the labelled
// intervals of one tier in file order.
package textgrid
