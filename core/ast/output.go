package ast

// EscapeContext selects the sanitizer the code generator emits for an Output.
type EscapeContext int

const (
	ContextUnset EscapeContext = iota
	ContextMarkup
	ContextAttribute
	ContextScript
	ContextStyle
	ContextURL
	ContextJSON
	ContextJSONAttribute
	ContextRaw
)

var contextNames = [...]string{
	ContextUnset:         "unset",
	ContextMarkup:        "markup",
	ContextAttribute:     "attribute",
	ContextScript:        "script",
	ContextStyle:         "style",
	ContextURL:           "url",
	ContextJSON:          "json",
	ContextJSONAttribute: "json-attribute",
	ContextRaw:           "raw",
}

func (c EscapeContext) String() string {
	if int(c) >= 0 && int(c) < len(contextNames) {
		return contextNames[c]
	}
	return "unknown"
}

// IsJSON reports whether c belongs to the JSON family. JSON contexts are
// pinned by the tokenizer and never rewritten by context analysis.
func (c EscapeContext) IsJSON() bool {
	return c == ContextJSON || c == ContextJSONAttribute
}

// Pipe is one transform in an output's pipe chain, e.g. truncate:20.
type Pipe struct {
	Name string
	Args []string
}

// Output is a dynamic expression to be emitted.
type Output struct {
	Meta
	Expr    string
	Escape  bool
	Context EscapeContext
	Pipes   []Pipe
}

func (*Output) Kind() Kind { return KindOutput }

// Escaped creates an escaped Output with no context assigned yet.
func Escaped(expr string) *Output {
	return &Output{Expr: expr, Escape: true}
}
