// Package history keeps an optional SQLite record of batch runs and the
// outcome of every asset they attempted.
package history
