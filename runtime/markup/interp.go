package markup

import (
	"strings"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
)

// segment is literal text or one interpolation of a text run or attribute
// value. off is the byte offset of the segment within the run.
type segment struct {
	text string
	out  *ast.Output
	off  int
}

type delims struct {
	open, close string
	escape      bool
}

var (
	escaped = delims{"{{", "}}", true}
	raw     = delims{"{!!", "!!}", false}
)

// interpolate splits s into text and output segments. inAttr selects the
// attribute flavour of a pinned JSON context.
func interpolate(s string, inAttr bool) ([]segment, error) {
	var segs []segment
	pos := 0
	for pos < len(s) {
		i, d := nextOpen(s[pos:])
		if i < 0 {
			segs = append(segs, segment{text: s[pos:], off: pos})
			break
		}
		start := pos + i
		if i > 0 {
			segs = append(segs, segment{text: s[pos:start], off: pos})
		}
		body := start + len(d.open)
		end := strings.Index(s[body:], d.close)
		if end < 0 {
			return nil, &offsetError{off: start, err: diag.Syntax(diag.ErrMarkupSyntax,
				"unterminated %s, expected %s", d.open, d.close)}
		}
		out, err := parseOutput(s[body:body+end], d, inAttr)
		if err != nil {
			return nil, &offsetError{off: start, err: err}
		}
		segs = append(segs, segment{out: out, off: start})
		pos = body + end + len(d.close)
	}
	return segs, nil
}

// nextOpen finds the earliest opening delimiter in s.
func nextOpen(s string) (int, delims) {
	e := strings.Index(s, escaped.open)
	r := strings.Index(s, raw.open)
	switch {
	case r >= 0 && (e < 0 || r <= e):
		return r, raw
	case e >= 0:
		return e, escaped
	default:
		return -1, delims{}
	}
}

// offsetError carries a syntax error found at an offset of the input run
// until the caller can turn the offset into a location.
type offsetError struct {
	off int
	err *diag.Error
}

func (e *offsetError) Error() string { return e.err.Error() }

// parseOutput parses "expr | pipe:arg,arg | pipe".
func parseOutput(src string, d delims, inAttr bool) (*ast.Output, *diag.Error) {
	parts := splitTopLevel(src, '|')
	expr := strings.TrimSpace(parts[0])
	if expr == "" {
		return nil, diag.Syntax(diag.ErrMarkupSyntax, "empty expression in %s %s", d.open, d.close)
	}

	out := &ast.Output{Expr: expr, Escape: d.escape}
	if !d.escape {
		out.Context = ast.ContextRaw
	}
	for _, p := range parts[1:] {
		name, args, _ := strings.Cut(strings.TrimSpace(p), ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, diag.Syntax(diag.ErrMarkupSyntax, "empty pipe in %q", strings.TrimSpace(src))
		}
		pipe := ast.Pipe{Name: name}
		if args != "" {
			for _, a := range splitTopLevel(args, ',') {
				pipe.Args = append(pipe.Args, strings.TrimSpace(a))
			}
		}
		out.Pipes = append(out.Pipes, pipe)
	}

	if n := len(out.Pipes); d.escape && n > 0 && out.Pipes[n-1].Name == "json" && len(out.Pipes[n-1].Args) == 0 {
		out.Pipes = out.Pipes[:n-1]
		out.Context = ast.ContextJSON
		if inAttr {
			out.Context = ast.ContextJSONAttribute
		}
	}
	if len(out.Pipes) == 0 {
		out.Pipes = nil
	}
	return out, nil
}

// splitTopLevel splits s on sep outside quotes and brackets. A doubled
// separator ("||") is an operator, not a split point.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		last  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' && quote != '`' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			if i+1 < len(s) && s[i+1] == sep {
				i++
				continue
			}
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}
