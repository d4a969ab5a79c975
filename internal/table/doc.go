// Package table defines the per-word feature table and writes it out.
//
// The schema is derived from the Legendre order and whether the summary
// statistics are requested. CSV output follows the pandas to_csv layout with
// a leading index column and empty cells for missing values; .db/.sqlite
// outputs are appended to a SQLite database alongside a runs table. Writes
// hold a flock on <out>.lock so two runs cannot target the same file.
package table
