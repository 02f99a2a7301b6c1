package logging

import (
	"log/slog"
	"runtime"
)

// recordSource mirrors slog.Record.Source (Go 1.25+) for older toolchains:
// it returns nil when the record carries no program counter.
func recordSource(r slog.Record) *slog.Source {
	if r.PC == 0 {
		return nil
	}
	fs := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := fs.Next()
	return &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
}
