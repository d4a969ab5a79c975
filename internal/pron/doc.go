// Package pron loads CMU Pronouncing Dictionary files and derives syllable
// counts and speaking rates from them.
//
// A syllable is a phone carrying a stress digit (AE1, AH0, OW2). Only the
// first listed pronunciation of a word is used for counting.
package pron
