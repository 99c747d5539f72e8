// Package directive holds the directive registry: name to compiler lookup,
// capability classification and typo suggestions.
//
// Capabilities are explicit fields on a Descriptor rather than interfaces a
// compiler may or may not implement, so classification never probes types.
package directive

import (
	"github.com/aledsdavies/weave/core/ast"
)

// Compiler turns a Directive node into the nodes that replace it.
type Compiler interface {
	Compile(d *ast.Directive, cc *Context) ([]ast.Node, error)
}

// CompilerFunc adapts a function to a Compiler.
type CompilerFunc func(d *ast.Directive, cc *Context) ([]ast.Node, error)

func (f CompilerFunc) Compile(d *ast.Directive, cc *Context) ([]ast.Node, error) {
	return f(d, cc)
}

// Context is the ambient state handed to compilers.
type Context struct {
	Registry *Registry
	Prefix   string // directive attribute prefix, e.g. "t"
	Path     string // template being compiled
}

// MergeMode selects how a directive's compiled output meets existing
// attributes.
type MergeMode int

const (
	MergeNone MergeMode = iota
	// MergeInto folds the compiled output into the attribute named Into.
	MergeInto
	// MergeExclude produces a spread that omits the Exclude names.
	MergeExclude
)

// CombineFunc merges the existing value of an attribute (nil when absent)
// with the directive's compiled output and returns the new value parts.
type CombineFunc func(existing *ast.Attribute, compiled *ast.Output) []ast.AttrPart

// MergePolicy describes how an attribute directive writes its result.
type MergePolicy struct {
	Mode    MergeMode
	Into    string
	Combine CombineFunc
	Exclude []string
}

// Descriptor declares a directive's name and capabilities.
type Descriptor struct {
	Name string

	// PassThrough directives are never rewritten by the lifecycle passes;
	// another stage (e.g. slot resolution) consumes them.
	PassThrough bool

	// Followers names the directives that pair with this one as the next
	// link of a chain (if → elseif/else). Empty means not a pairing leader.
	Followers []string

	// ClaimsElement allows writing the directive as <ns-name>. ExpressionAttr
	// names the attribute holding the expression; empty for directives
	// without one (e.g. else).
	ClaimsElement  bool
	ExpressionAttr string

	// Merge is the attribute merge policy, if any.
	Merge *MergePolicy

	// Summary is a one-line description for tooling.
	Summary string
}

// IsPassThrough reports whether the directive is left for another stage.
func (d Descriptor) IsPassThrough() bool {
	return d.PassThrough
}

// IsPairing reports whether the directive leads a pairing chain and returns
// the follower names.
func (d Descriptor) IsPairing() ([]string, bool) {
	return d.Followers, len(d.Followers) > 0
}

// Pairs reports whether name may follow this directive.
func (d Descriptor) Pairs(name string) bool {
	for _, f := range d.Followers {
		if f == name {
			return true
		}
	}
	return false
}

// IsElementClaiming reports whether the directive may be written as a custom
// element and returns the expression attribute name.
func (d Descriptor) IsElementClaiming() (string, bool) {
	return d.ExpressionAttr, d.ClaimsElement
}

// MergePolicy returns the merge policy and whether one is declared.
func (d Descriptor) MergePolicy() (MergePolicy, bool) {
	if d.Merge == nil || d.Merge.Mode == MergeNone {
		return MergePolicy{}, false
	}
	return *d.Merge, true
}
