// Package prosody holds the stateless numeric transforms applied to pitch
// and intensity contours: semitone conversion, z-scoring, guarded summary
// statistics, and discrete Legendre projection.
//
// A contour is a []float64. Missing measurements are represented by the
// two-element NaN sentinel returned by Sentinel; every function lets NaN
// propagate so a missing contour yields missing features rather than an
// error.
package prosody
