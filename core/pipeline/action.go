package pipeline

import "github.com/aledsdavies/weave/core/ast"

type actionKind uint8

const (
	actionNone actionKind = iota
	actionSkipChildren
	actionReplace
)

// Action is the result of a hook: no effect, skip the node's children, or
// replace the node. A replacement implies its children are not walked, so
// the two can never be combined.
type Action struct {
	kind    actionKind
	nodes   []ast.Node
	restart bool
}

// None leaves the node untouched.
func None() Action {
	return Action{}
}

// SkipChildren suppresses descent into the node for this visit. The node's
// After hooks still run.
func SkipChildren() Action {
	return Action{kind: actionSkipChildren}
}

// Replace discards the node and puts nodes in its position. The new nodes
// resume at the pass after the replacing one, so they are not observed by it
// again.
func Replace(nodes ...ast.Node) Action {
	return Action{kind: actionReplace, nodes: nodes}
}

// Restart is Replace, except the new nodes resume at the replacing pass
// itself, letting it observe nodes it synthesized.
func Restart(nodes ...ast.Node) Action {
	return Action{kind: actionReplace, nodes: nodes, restart: true}
}

// Remove drops the node.
func Remove() Action {
	return Action{kind: actionReplace}
}

// IsNone reports whether the action has no effect.
func (a Action) IsNone() bool { return a.kind == actionNone }

// Replaces reports whether the action replaces the node.
func (a Action) Replaces() bool { return a.kind == actionReplace }

// Skips reports whether the action suppresses descent.
func (a Action) Skips() bool { return a.kind == actionSkipChildren }

// Nodes returns the replacement nodes.
func (a Action) Nodes() []ast.Node { return a.nodes }

// Restarts reports whether replacement nodes resume at the same pass.
func (a Action) Restarts() bool { return a.restart }

func (a Action) String() string {
	switch a.kind {
	case actionSkipChildren:
		return "skip-children"
	case actionReplace:
		if a.restart {
			return "restart"
		}
		return "replace"
	default:
		return "none"
	}
}
