package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/weave/core/diag"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Code    int // exit code; 0 means ExitInvalidArguments
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// compileFailure is returned once every template diagnostic was printed.
type compileFailure struct {
	failed, total int
}

func (e *compileFailure) Error() string {
	return fmt.Sprintf("%d of %d templates failed", e.failed, e.total)
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case *CLIError:
		formatCLIError(w, e, useColor)
	case *compileFailure:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), e.Error())
	default:
		if _, ok := diag.As(err); ok {
			_, _ = fmt.Fprint(w, diag.Formatter{Color: useColor}.Format(err))
			return
		}
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
