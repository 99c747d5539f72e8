package pipeline

import "github.com/aledsdavies/weave/core/ast"

// Pass observes and rewrites nodes during the single traversal.
//
// Before runs when a node is entered, After once its children have been
// processed and written back. Both are called for every node type; leaves
// simply have no children between the two.
type Pass interface {
	Name() string
	Before(v *Visit, n ast.Node) (Action, error)
	After(v *Visit, n ast.Node) (Action, error)
}

// Base provides no-op hooks for embedding.
type Base struct{}

func (Base) Before(*Visit, ast.Node) (Action, error) { return None(), nil }
func (Base) After(*Visit, ast.Node) (Action, error)  { return None(), nil }

// Func adapts plain functions to a Pass. Nil hooks are no-ops.
type Func struct {
	PassName   string
	BeforeFunc func(v *Visit, n ast.Node) (Action, error)
	AfterFunc  func(v *Visit, n ast.Node) (Action, error)
}

func (f Func) Name() string { return f.PassName }

func (f Func) Before(v *Visit, n ast.Node) (Action, error) {
	if f.BeforeFunc == nil {
		return None(), nil
	}
	return f.BeforeFunc(v, n)
}

func (f Func) After(v *Visit, n ast.Node) (Action, error) {
	if f.AfterFunc == nil {
		return None(), nil
	}
	return f.AfterFunc(v, n)
}
