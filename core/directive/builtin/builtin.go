// Package builtin provides the directives every weave project starts with.
//
// Compilers emit Go host code. A directive's children are always handed back
// wrapped in a Fragment so the traversal walks them like any other subtree.
package builtin

import (
	"strings"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
)

// Register adds the built-in directives to r.
func Register(r *directive.Registry) {
	r.Register(directive.Descriptor{
		Name:           "if",
		Followers:      []string{"elseif", "else"},
		ClaimsElement:  true,
		ExpressionAttr: "test",
		Summary:        "render the element when the condition holds",
	}, directive.CompilerFunc(compileIf))
	r.Register(directive.Descriptor{
		Name:           "elseif",
		Followers:      []string{"elseif", "else"},
		ClaimsElement:  true,
		ExpressionAttr: "test",
		Summary:        "alternative branch of a preceding if",
	}, directive.CompilerFunc(compileElseIf))
	r.Register(directive.Descriptor{
		Name:          "else",
		ClaimsElement: true,
		Summary:       "fallback branch of a preceding if, elseif or unless",
	}, orphan("else", "if, elseif or unless"))
	r.Register(directive.Descriptor{
		Name:           "unless",
		Followers:      []string{"else"},
		ClaimsElement:  true,
		ExpressionAttr: "test",
		Summary:        "render the element when the condition does not hold",
	}, directive.CompilerFunc(compileUnless))
	r.Register(directive.Descriptor{
		Name:           "foreach",
		Followers:      []string{"empty"},
		ClaimsElement:  true,
		ExpressionAttr: "each",
		Summary:        "repeat the element for every item of a collection",
	}, directive.CompilerFunc(compileForeach))
	r.Register(directive.Descriptor{
		Name:          "empty",
		ClaimsElement: true,
		Summary:       "fallback rendered when the preceding foreach has no items",
	}, orphan("empty", "foreach"))

	r.Register(directive.Descriptor{
		Name:    "text",
		Summary: "replace the element body with an escaped expression",
	}, content(true))
	r.Register(directive.Descriptor{
		Name:    "html",
		Summary: "replace the element body with an unescaped expression",
	}, content(false))

	classPolicy := &directive.MergePolicy{Mode: directive.MergeInto, Into: "class", Combine: directive.Join(" ")}
	r.Register(directive.Descriptor{
		Name:    "class",
		Merge:   classPolicy,
		Summary: "merge conditional classes into the class attribute",
	}, merge(*classPolicy, "class"))

	stylePolicy := &directive.MergePolicy{Mode: directive.MergeInto, Into: "style", Combine: directive.Join("; ")}
	r.Register(directive.Descriptor{
		Name:    "style",
		Merge:   stylePolicy,
		Summary: "merge conditional declarations into the style attribute",
	}, merge(*stylePolicy, "style"))

	attrsPolicy := &directive.MergePolicy{Mode: directive.MergeExclude, Exclude: []string{"class", "style"}}
	r.Register(directive.Descriptor{
		Name:    "attributes",
		Merge:   attrsPolicy,
		Summary: "spread an attribute bag, keeping explicit attributes",
	}, merge(*attrsPolicy, ""))

	r.Register(directive.Descriptor{
		Name:        "slot",
		PassThrough: true,
		Summary:     "mark content for component slot resolution",
	}, nil)
}

// NewRegistry returns a registry holding the built-in directives.
func NewRegistry() *directive.Registry {
	r := directive.NewRegistry()
	Register(r)
	return r
}

func body(d *ast.Directive) ast.Node {
	return ast.Group(d, d.Nodes...)
}

func requireExpr(d *ast.Directive, cc *directive.Context, what string) (string, error) {
	expr := strings.TrimSpace(d.Expr)
	if expr == "" {
		return "", diag.Syntax(diag.ErrDirectiveSyntax, "%s requires %s", qualified(d.Name, cc), what)
	}
	return expr, nil
}

func qualified(name string, cc *directive.Context) string {
	if cc == nil || cc.Prefix == "" {
		return name
	}
	return cc.Prefix + ":" + name
}

// orphan compiles a follower reached without its leader: always an error.
func orphan(name, leaders string) directive.Compiler {
	return directive.CompilerFunc(func(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
		return nil, diag.Syntax(diag.ErrUnpairedDirective,
			"%s must follow %s", qualified(name, cc), leaders)
	})
}
