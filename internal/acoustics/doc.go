// Package acoustics measures pitch and intensity contours over a time window
// of a recording.
//
// Two engines implement Engine: Native, an in-process autocorrelation pitch
// tracker and mean-square intensity tracker laid out like Praat's short-term
// analyses, and Praat, which shells out to the praat binary with an embedded
// script. Measurer sits on top of either and applies the per-word policy:
// optional removal of unvoiced frames and substitution of the [NaN, NaN]
// sentinel when a window cannot be analyzed or leaves fewer than two frames.
package acoustics
