package pipeline

import "github.com/aledsdavies/weave/core/ast"

// Visit is the per-execution state threaded through every hook call.
//
// Passes keep traversal-scoped working state here instead of in their own
// fields, so one pass value can serve concurrent executions.
type Visit struct {
	path      string
	ancestors []ast.Container
	values    map[any]any
	pass      string
}

func newVisit(path string) *Visit {
	return &Visit{path: path, values: make(map[any]any)}
}

// Path returns the path of the document being compiled.
func (v *Visit) Path() string { return v.path }

// Depth is the number of open ancestors of the node being visited.
func (v *Visit) Depth() int { return len(v.ancestors) }

// Parent returns the innermost open ancestor, or nil at the root.
func (v *Visit) Parent() ast.Container {
	if len(v.ancestors) == 0 {
		return nil
	}
	return v.ancestors[len(v.ancestors)-1]
}

// Ancestors returns the open ancestors, outermost first. The slice must not
// be retained past the hook call.
func (v *Visit) Ancestors() []ast.Container { return v.ancestors }

// Pass returns the name of the pass whose hook is running.
func (v *Visit) Pass() string { return v.pass }

// Value returns pass-local state stored under key.
func (v *Visit) Value(key any) any { return v.values[key] }

// SetValue stores pass-local state under key for the rest of the execution.
func (v *Visit) SetValue(key, value any) { v.values[key] = value }

func (v *Visit) push(c ast.Container) { v.ancestors = append(v.ancestors, c) }

func (v *Visit) pop() { v.ancestors = v.ancestors[:len(v.ancestors)-1] }
