// Package passes holds the standard pipeline passes and their priority
// bands. Later bands may assume the invariants of earlier ones.
package passes

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Priority bands, lowest first.
const (
	PriorityPreExtraction  = 100
	PriorityElementRouting = 200
	PriorityExtraction     = 300
	PriorityPairing        = 400
	PriorityCompilation    = 500
	PriorityInheritance    = 600
	PriorityHostCode       = 700
	PriorityContext        = 800
)

// DefaultPrefix is the directive attribute prefix (t:if).
const DefaultPrefix = "t"

// DefaultNamespace is the custom element namespace (<x-if>).
const DefaultNamespace = "x"

// Settings is what the directive passes share.
type Settings struct {
	Registry  *directive.Registry
	Prefix    string
	Namespace string
}

func (s Settings) prefix() string {
	if s.Prefix == "" {
		return DefaultPrefix
	}
	return s.Prefix
}

func (s Settings) namespace() string {
	if s.Namespace == "" {
		return DefaultNamespace
	}
	return s.Namespace
}

// Register adds the standard passes to p at their bands.
func Register(p *pipeline.Pipeline, s Settings) {
	p.Register(PriorityElementRouting, &Routing{Settings: s})
	p.Register(PriorityExtraction, &Extraction{Settings: s})
	p.Register(PriorityPairing, &Pairing{Settings: s})
	p.Register(PriorityCompilation, &Compilation{Settings: s})
	p.Register(PriorityHostCode, &HostCode{})
	p.Register(PriorityContext, &Context{})
}

// at locates err at pos, falling back to the node's own position.
func at(err *diag.Error, v *pipeline.Visit, n ast.Node, pos ast.Position) *diag.Error {
	if pos.Line == 0 {
		pos = n.Position()
	}
	if pos.Line == 0 {
		return err
	}
	path := n.TemplatePath()
	if path == "" {
		path = v.Path()
	}
	return err.At(path, pos.Line, pos.Column)
}
