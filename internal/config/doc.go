// Package config loads, normalizes, and validates prosody configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the PROSODY_DICT environment
// fallback for the pronunciation dictionary. Command-line flags are applied by
// the CLI between Read and Finalize so a single validation pass sees the
// effective settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
