package builtin

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
)

func compileIf(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
	expr, err := requireExpr(d, cc, "a condition")
	if err != nil {
		return nil, err
	}
	out := []ast.Node{ast.Code(d, "if ("+expr+") {"), body(d)}
	return append(out, closeBranch(d)...), nil
}

func compileUnless(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
	expr, err := requireExpr(d, cc, "a condition")
	if err != nil {
		return nil, err
	}
	out := []ast.Node{ast.Code(d, "if !("+expr+") {"), body(d)}
	return append(out, closeBranch(d)...), nil
}

func compileElseIf(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
	if d.LedBy == nil {
		return nil, diag.Syntax(diag.ErrUnpairedDirective,
			"%s must follow if or elseif", qualified(d.Name, cc))
	}
	expr, err := requireExpr(d, cc, "a condition")
	if err != nil {
		return nil, err
	}
	out := []ast.Node{ast.Code(d, "} else if ("+expr+") {"), body(d)}
	return append(out, closeBranch(d)...), nil
}

// closeBranch ends a conditional branch. A consumed follower (else) is
// inlined; an unconsumed one (elseif) continues the chain itself.
func closeBranch(d *ast.Directive) []ast.Node {
	switch {
	case d.Paired == nil:
		return []ast.Node{ast.Code(d, "}")}
	case d.Paired.Consumed:
		f := d.Paired
		return []ast.Node{ast.Code(f, "} else {"), body(f), ast.Code(f, "}")}
	default:
		return nil
	}
}
