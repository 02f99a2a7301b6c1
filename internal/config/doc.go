// Package config loads, normalizes, and validates stackpress configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STACKPRESS_MAGICK_BINARY. The Config type centralizes every knob the CLI and
// the publish pipeline need so transform selection, worker limits, and log
// routing are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
