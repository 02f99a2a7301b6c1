// Package logging assembles the structured slog loggers used by stackpress.
//
// It owns the console and JSON handlers, parses levels, tees output to an
// optional log file, and exposes context helpers so pipeline code can tag
// every record with the run ID, the asset being processed, and the current
// step. A no-op logger is provided for tests and wiring that cannot fail.
package logging
