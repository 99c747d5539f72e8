// Package diag defines the error taxonomy shared by every stage of the
// compiler: syntax errors a template author must fix, internal-consistency
// failures caused by a defective pass, and loader failures raised by
// collaborators that read templates from disk.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindSyntax is a template problem the author must fix.
	KindSyntax Kind = iota
	// KindInternal signals a defect in a pass or directive compiler.
	KindInternal
	// KindLoader is raised by collaborators that read templates.
	KindLoader
)

func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindInternal:
		return "internal"
	case KindLoader:
		return "loader"
	default:
		return "unknown"
	}
}

// Error codes for the conditions weave reports.
const (
	// Syntax
	ErrUnknownDirective  = "UNKNOWN_DIRECTIVE"
	ErrDirectiveSyntax   = "DIRECTIVE_SYNTAX"
	ErrElementAttribute  = "ELEMENT_ATTRIBUTE"
	ErrDynamicExpression = "DYNAMIC_EXPRESSION"
	ErrUnpairedDirective = "UNPAIRED_DIRECTIVE"
	ErrMarkupSyntax      = "MARKUP_SYNTAX"

	// Internal
	ErrPipelineResult  = "PIPELINE_RESULT"
	ErrMissingCompiler = "MISSING_COMPILER"
	ErrUncompiledNode  = "UNCOMPILED_NODE"

	// Loader
	ErrTemplateNotFound = "TEMPLATE_NOT_FOUND"
	ErrTemplateRead     = "TEMPLATE_READ"
)

// Error is a compile failure with an optional source location.
//
// The location is attachable after construction because the stage that
// detects a problem often does not know where the offending node came from;
// the pipeline fills it in from the node it was visiting.
type Error struct {
	Kind       Kind
	Code       string
	Suggestion string // best-effort fix, e.g. the nearest directive name
	Cause      error

	message string
	path    string
	line    int
	column  int
	located bool
}

// Syntax creates a syntax error.
func Syntax(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindSyntax, Code: code, message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal-consistency error.
func Internal(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Code: code, message: fmt.Sprintf(format, args...)}
}

// Loader wraps a collaborator failure to read a template.
func Loader(code string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindLoader, Code: code, Cause: cause, message: fmt.Sprintf(format, args...)}
}

// At attaches a template location. It returns e for chaining.
func (e *Error) At(path string, line, column int) *Error {
	e.path = path
	e.line = line
	e.column = column
	e.located = true
	return e
}

// WithSuggestion sets the suggestion. It returns e for chaining.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// HasLocation reports whether At has been called.
func (e *Error) HasLocation() bool {
	return e.located
}

// Location returns the attached template path, line and column.
func (e *Error) Location() (path string, line, column int) {
	return e.path, e.line, e.column
}

// Message returns the message without suggestion or location suffix.
func (e *Error) Message() string {
	return e.message
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if e.located {
		path := e.path
		if path == "" {
			path = "-"
		}
		fmt.Fprintf(&b, " (template: %s line:%d column:%d)", path, e.line, e.column)
	}
	return b.String()
}

// Unwrap allows errors.Is / errors.As to reach the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err carries a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == kind
}

// IsCode reports whether err carries a *Error with the given code.
func IsCode(err error, code string) bool {
	de, ok := As(err)
	return ok && de.Code == code
}
