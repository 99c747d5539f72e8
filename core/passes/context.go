package passes

import (
	"strings"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Context assigns the escaping context of every Output from the open
// elements around it: script and style bodies get their own contexts,
// attribute values always get the attribute context, anything else is
// markup. Outputs with escaping disabled or a JSON context keep theirs.
type Context struct {
	pipeline.Base
}

type contextKey struct{}

// openTag is an element on the context stack. depth is the visit depth at
// which it was entered.
type openTag struct {
	tag   string
	depth int
}

type tagStack struct {
	open []openTag
}

// trim closes every tag entered at depth or deeper. Tags left open by a
// node replaced before its After hook ran are discarded here.
func (s *tagStack) trim(depth int) {
	for len(s.open) > 0 && s.open[len(s.open)-1].depth >= depth {
		s.open = s.open[:len(s.open)-1]
	}
}

func (s *tagStack) context() ast.EscapeContext {
	if len(s.open) == 0 {
		return ast.ContextMarkup
	}
	switch s.open[len(s.open)-1].tag {
	case "script":
		return ast.ContextScript
	case "style":
		return ast.ContextStyle
	default:
		return ast.ContextMarkup
	}
}

func (*Context) Name() string { return "context-analysis" }

func (*Context) Before(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	if _, ok := n.(*ast.Document); ok {
		v.SetValue(contextKey{}, &tagStack{})
		return pipeline.None(), nil
	}
	s := stack(v)

	if a, ok := n.(ast.Attributed); ok {
		for _, attr := range a.Attributes() {
			for _, out := range attr.Outputs() {
				assign(out, ast.ContextAttribute)
			}
		}
	}

	switch t := n.(type) {
	case *ast.Element:
		s.trim(v.Depth())
		s.open = append(s.open, openTag{tag: strings.ToLower(t.Tag), depth: v.Depth()})
	case *ast.Output:
		s.trim(v.Depth())
		assign(t, s.context())
	}
	return pipeline.None(), nil
}

func (*Context) After(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	if _, ok := n.(*ast.Element); ok {
		stack(v).trim(v.Depth())
	}
	return pipeline.None(), nil
}

func stack(v *pipeline.Visit) *tagStack {
	s, ok := v.Value(contextKey{}).(*tagStack)
	if !ok {
		s = &tagStack{}
		v.SetValue(contextKey{}, s)
	}
	return s
}

func assign(out *ast.Output, ctx ast.EscapeContext) {
	if !out.Escape || out.Context.IsJSON() {
		return
	}
	out.Context = ctx
}
