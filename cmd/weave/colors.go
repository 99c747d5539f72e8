package main

import (
	"io"
	"os"

	"github.com/aledsdavies/weave/core/diag"
)

const (
	ColorReset  = diag.ColorReset
	ColorRed    = diag.ColorRed
	ColorGreen  = "\033[32m"
	ColorYellow = diag.ColorYellow
	ColorCyan   = diag.ColorCyan
	ColorGray   = diag.ColorGray
)

// Colorize wraps text in ANSI color codes if color is enabled.
func Colorize(text, color string, useColor bool) string {
	return diag.Colorize(text, color, useColor)
}

// ShouldUseColor determines if color output should be used.
// Respects --no-color and the NO_COLOR environment variable.
func ShouldUseColor(noColorFlag bool, w io.Writer) bool {
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
