package transform

import (
	"fmt"
	"strings"
)

const maxErrorOutput = 512

// CommandError reports a failed external tool invocation together with the
// exact command line and everything it printed.
type CommandError struct {
	Binary string
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	b.WriteString("command failed: ")
	b.WriteString(e.CommandLine())
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if detail := summarizeOutput(e.Stderr); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	} else if detail := summarizeOutput(e.Stdout); detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

// CommandLine renders the invocation the way it would be typed in a shell.
func (e *CommandError) CommandLine() string {
	parts := make([]string, 0, len(e.Args)+1)
	parts = append(parts, e.Binary)
	for _, arg := range e.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// summarizeOutput folds tool output onto one line for diagnostics.
func summarizeOutput(output string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(output), func(r rune) bool { return r == '\n' || r == '\r' })
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	summary := strings.Join(fields, " | ")
	if len(summary) > maxErrorOutput {
		summary = summary[:maxErrorOutput] + "..."
	}
	return summary
}
