package builtin

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
)

// content replaces the body of the directive's element with one Output.
func content(escape bool) directive.Compiler {
	return directive.CompilerFunc(func(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
		expr, err := requireExpr(d, cc, "an expression")
		if err != nil {
			return nil, err
		}
		targets, err := containers(d, cc)
		if err != nil {
			return nil, err
		}
		for _, c := range targets {
			out := &ast.Output{Meta: ast.Meta{Pos: d.Position(), Path: d.TemplatePath()}, Expr: expr, Escape: escape}
			if !escape {
				out.Context = ast.ContextRaw
			}
			c.SetChildren([]ast.Node{out})
		}
		return []ast.Node{body(d)}, nil
	})
}

// merge writes the expression into the element's attributes. A non-empty
// pipe names the runtime transform applied to the value.
func merge(p directive.MergePolicy, pipe string) directive.Compiler {
	return directive.CompilerFunc(func(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
		expr, err := requireExpr(d, cc, "an expression")
		if err != nil {
			return nil, err
		}
		targets, err := attributed(d, cc)
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			out := &ast.Output{Meta: ast.Meta{Pos: d.Position(), Path: d.TemplatePath()}, Expr: expr, Escape: true}
			if pipe != "" {
				out.Pipes = []ast.Pipe{{Name: pipe}}
			}
			directive.ApplyMerge(p, target, out)
		}
		return []ast.Node{body(d)}, nil
	})
}

// element skips directive wrappers nested by extraction: in
// <p t:text="a" t:if="b"> the text directive wraps the if directive, which
// wraps the paragraph.
func element(n ast.Node) ast.Node {
	for {
		d, ok := n.(*ast.Directive)
		if !ok || len(d.Nodes) != 1 {
			return n
		}
		n = d.Nodes[0]
	}
}

func containers(d *ast.Directive, cc *directive.Context) ([]ast.Container, error) {
	var out []ast.Container
	for _, n := range d.Nodes {
		c, ok := element(n).(ast.Container)
		if _, wrapper := c.(*ast.Directive); wrapper {
			ok = false
		}
		if !ok {
			return nil, diag.Syntax(diag.ErrDirectiveSyntax, "%s must be placed on an element", qualified(d.Name, cc))
		}
		out = append(out, c)
	}
	return out, nil
}

func attributed(d *ast.Directive, cc *directive.Context) ([]ast.Attributed, error) {
	var out []ast.Attributed
	for _, n := range d.Nodes {
		a, ok := element(n).(ast.Attributed)
		if !ok {
			return nil, diag.Syntax(diag.ErrDirectiveSyntax, "%s must be placed on an element", qualified(d.Name, cc))
		}
		out = append(out, a)
	}
	return out, nil
}
