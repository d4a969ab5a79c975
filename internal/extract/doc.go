// Package extract runs a batch over a corpus directory.
//
// Discover pairs every TextGrid with a recording of the same name. The
// Extractor then reads the configured tier of each pair, measures every
// interval through an acoustics.Measurer and assembles one table.Row per
// word: Legendre coefficients for both contours and, unless the run is
// legendre-only, summary statistics and the speaking rate from the
// pronunciation dictionary. Pairs may be processed by several workers; rows
// always follow pair order, then interval order.
//
// Missing recordings are skipped with a warning. Any other per-file problem
// is a *FileError, which aborts the run unless continue_on_error is set.
package extract
