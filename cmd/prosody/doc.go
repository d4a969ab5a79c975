// Package main hosts the prosody CLI entrypoint and command graph.
//
// The root command runs an extraction over a corpus directory and prints a
// run summary; `config` scaffolds and inspects configuration and `deps`
// reports the external programs a run may need. Flags that were set on the
// command line override the configuration file before it is validated.
//
// Keep this package lean: behaviour lives in the internal packages and is
// only surfaced here.
package main
