package passes

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Routing rewrites custom elements claimed by a directive, such as
// <x-if test="ok">, into a Fragment carrying the directive attribute
// (t:if="ok") so extraction handles both spellings alike.
//
// It runs over each container's children, ahead of extraction in the same
// visit.
type Routing struct {
	pipeline.Base
	Settings
}

func (*Routing) Name() string { return "element-routing" }

func (r *Routing) Before(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	c, ok := n.(ast.Container)
	if !ok {
		return pipeline.None(), nil
	}
	kids := c.Children()
	for i, child := range kids {
		comp, ok := child.(*ast.Component)
		if !ok || comp.Namespace != r.namespace() {
			continue
		}
		frag, err := r.route(v, comp)
		if err != nil {
			return pipeline.None(), err
		}
		if frag != nil {
			kids[i] = frag
		}
	}
	c.SetChildren(kids)
	return pipeline.None(), nil
}

// route returns nil when comp is not claimed by any directive.
func (r *Routing) route(v *pipeline.Visit, comp *ast.Component) (*ast.Fragment, error) {
	entry, ok := r.Registry.Lookup(comp.Name)
	if !ok {
		return nil, nil
	}
	exprAttr, claims := entry.IsElementClaiming()
	if !claims {
		return nil, nil
	}

	prefix := r.prefix()
	synth := ast.BoolAttr(prefix + ":" + entry.Name)
	synth.Pos = comp.Position()
	attrs := []*ast.Attribute{synth}

	for _, a := range comp.Attrs {
		if exprAttr != "" && !a.Spread && a.Name == exprAttr {
			switch a.ValueKind() {
			case ast.AttrStatic:
				expr, _ := a.Static()
				synth.SetStatic(expr)
			case ast.AttrBool:
				// <x-if test> compiles with an empty expression
			default:
				return nil, at(diag.Syntax(diag.ErrDynamicExpression,
					"<%s> %s must be a plain expression, not an interpolated value", comp.TagName(), a.Name), v, comp, a.Pos)
			}
			continue
		}
		if _, ok := a.DirectiveName(prefix); !ok {
			name := a.Name
			if a.Spread {
				name = "spread attributes"
			}
			return nil, at(diag.Syntax(diag.ErrElementAttribute,
				"<%s> accepts only directive attributes, found %s", comp.TagName(), name), v, comp, a.Pos)
		}
		attrs = append(attrs, a)
	}

	return &ast.Fragment{
		Meta:  ast.Meta{Pos: comp.Position(), Path: comp.TemplatePath()},
		Attrs: attrs,
		Nodes: comp.Nodes,
	}, nil
}
