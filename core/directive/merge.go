package directive

import (
	"strings"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/invariant"
)

// ApplyMerge writes a directive's compiled output into target's attributes
// according to p.
func ApplyMerge(p MergePolicy, target ast.Attributed, out *ast.Output) {
	invariant.NotNil(target, "merge target")
	invariant.NotNil(out, "compiled output")

	attrs := target.Attributes()
	switch p.Mode {
	case MergeInto:
		i, existing := ast.FindAttr(attrs, p.Into)
		parts := p.Combine(existing, out)
		if i < 0 {
			a := ast.MixedAttr(p.Into, parts...)
			a.Pos = out.Pos
			attrs = append(attrs, a)
		} else {
			existing.SetMixed(parts)
		}
	case MergeExclude:
		exclude := append([]string(nil), p.Exclude...)
		for _, a := range attrs {
			if !a.Spread && !contains(exclude, a.Name) {
				exclude = append(exclude, a.Name)
			}
		}
		spread := ast.SpreadAttr(out, exclude...)
		spread.Pos = out.Pos
		attrs = append(attrs, spread)
	default:
		invariant.Precondition(false, "merge mode %d has no attribute effect", p.Mode)
	}
	target.SetAttributes(attrs)
}

// Join returns a CombineFunc appending the compiled output to the existing
// value, separated by sep. A missing, boolean or blank value is replaced.
func Join(sep string) CombineFunc {
	return func(existing *ast.Attribute, compiled *ast.Output) []ast.AttrPart {
		if existing == nil {
			return []ast.AttrPart{{Output: compiled}}
		}
		if v, ok := existing.Static(); ok && strings.TrimSpace(v) == "" {
			return []ast.AttrPart{{Output: compiled}}
		}
		parts := existing.AsParts()
		if len(parts) > 0 {
			parts = append(parts, ast.AttrPart{Text: sep})
		}
		return append(parts, ast.AttrPart{Output: compiled})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
