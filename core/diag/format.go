package diag

import (
	"fmt"
	"strings"
)

// ANSI color codes used by Formatter.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in an ANSI color when enabled.
func Colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ColorReset
}

// Formatter renders errors for terminals:
//
//	page.html:3:15: unknown directive "fi"
//	 3 | <p t:fi="ok">
//	   |               ^ did you mean "if"?
type Formatter struct {
	Source []byte // template source; the snippet is omitted when nil
	Color  bool
}

// Format renders err. Errors that are not *Error render as their message.
func (f Formatter) Format(err error) string {
	de, ok := As(err)
	if !ok {
		return Colorize("error: ", ColorRed, f.Color) + err.Error() + "\n"
	}

	var b strings.Builder
	path, line, col := de.Location()
	if de.HasLocation() {
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(&b, "%s:%d:%d: ", path, line, col)
	}
	b.WriteString(Colorize(de.Message(), ColorRed, f.Color))
	if de.Cause != nil {
		fmt.Fprintf(&b, ": %v", de.Cause)
	}
	if de.Kind == KindInternal {
		b.WriteString(Colorize(" [internal]", ColorGray, f.Color))
	}
	b.WriteString("\n")

	src, ok := f.sourceLine(line)
	if !de.HasLocation() || !ok {
		if de.Suggestion != "" {
			fmt.Fprintf(&b, "   did you mean %q?\n", de.Suggestion)
		}
		return b.String()
	}

	gutter := fmt.Sprintf(" %d | ", line)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "
	b.WriteString(Colorize(gutter, ColorCyan, f.Color))
	b.WriteString(src)
	b.WriteString("\n")
	b.WriteString(Colorize(pad, ColorCyan, f.Color))
	if col > 1 {
		b.WriteString(strings.Repeat(" ", col-1))
	}
	b.WriteString(Colorize("^", ColorYellow, f.Color))
	if de.Suggestion != "" {
		fmt.Fprintf(&b, " did you mean %q?", de.Suggestion)
	}
	b.WriteString("\n")
	return b.String()
}

func (f Formatter) sourceLine(line int) (string, bool) {
	if f.Source == nil || line < 1 {
		return "", false
	}
	lines := strings.Split(string(f.Source), "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}
