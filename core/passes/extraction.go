package passes

import (
	"sort"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Extraction lifts directive attributes off elements, fragments and
// components into Directive nodes wrapping them. Several directives on one
// node nest in source order, the first outermost:
//
//	<li t:if="ok" t:foreach="x in xs">  =>  if { foreach { <li> } }
//
// Pairing directives (leaders and followers) are hoisted above the rest so
// they stay siblings of the nodes they chain with:
//
//	<p t:text="v" t:if="ok">  =>  if { text { <p> } }
//
// Structural names and pass-through directives stay on the node.
type Extraction struct {
	pipeline.Base
	Settings
}

func (*Extraction) Name() string { return "directive-extraction" }

func (e *Extraction) Before(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	c, ok := n.(ast.Container)
	if !ok {
		return pipeline.None(), nil
	}
	kids := c.Children()
	for i, child := range kids {
		target, ok := child.(ast.Attributed)
		if !ok {
			continue
		}
		wrapped, err := e.extract(v, target)
		if err != nil {
			return pipeline.None(), err
		}
		kids[i] = wrapped
	}
	c.SetChildren(kids)
	return pipeline.None(), nil
}

func (e *Extraction) extract(v *pipeline.Visit, n ast.Attributed) (ast.Node, error) {
	prefix := e.prefix()
	var (
		keep  []*ast.Attribute
		found []*ast.Directive
	)
	for _, a := range n.Attributes() {
		name, ok := a.DirectiveName(prefix)
		if !ok || isStructural(name) {
			keep = append(keep, a)
			continue
		}
		entry, err := e.Registry.Get(name)
		if err != nil {
			de, _ := diag.As(err)
			return nil, at(de, v, n, a.Pos)
		}
		if entry.IsPassThrough() {
			keep = append(keep, a)
			continue
		}

		var expr string
		switch a.ValueKind() {
		case ast.AttrBool:
		case ast.AttrStatic:
			expr, _ = a.Static()
		default:
			return nil, at(diag.Syntax(diag.ErrDynamicExpression,
				"%s takes a plain expression, not an interpolated value", a.Name), v, n, a.Pos)
		}

		pos := a.Pos
		if pos.Line == 0 {
			pos = n.Position()
		}
		found = append(found, &ast.Directive{
			Meta: ast.Meta{Pos: pos, Path: n.TemplatePath()},
			Name: name,
			Expr: expr,
		})
	}
	if len(found) == 0 {
		return n, nil
	}
	n.SetAttributes(keep)

	sort.SliceStable(found, func(i, j int) bool {
		return e.pairs(found[i].Name) && !e.pairs(found[j].Name)
	})
	var wrapped ast.Node = n
	for i := len(found) - 1; i >= 0; i-- {
		found[i].Nodes = []ast.Node{wrapped}
		wrapped = found[i]
	}
	return wrapped, nil
}

// pairs reports whether name leads or follows a pairing chain.
func (e *Extraction) pairs(name string) bool {
	if entry, ok := e.Registry.Lookup(name); ok && len(entry.Followers) > 0 {
		return true
	}
	return e.Registry.IsFollower(name)
}

func isStructural(name string) bool {
	for _, s := range directive.StructuralNames {
		if s == name {
			return true
		}
	}
	return false
}
