package passes

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Compilation replaces each Directive with its compiler's output. Consumed
// followers are dropped; their leader already compiled them. The output is
// spliced with restart, so directives a compiler produces are compiled too.
type Compilation struct {
	pipeline.Base
	Settings
}

func (*Compilation) Name() string { return "directive-compilation" }

func (c *Compilation) Before(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	d, ok := n.(*ast.Directive)
	if !ok {
		return pipeline.None(), nil
	}
	if d.Consumed {
		return pipeline.Remove(), nil
	}

	entry, ok := c.Registry.Lookup(d.Name)
	if !ok {
		return pipeline.None(), diag.Internal(diag.ErrMissingCompiler,
			"no compiler registered for directive %q", d.Name)
	}
	if entry.IsPassThrough() {
		return pipeline.None(), nil
	}

	cc := &directive.Context{Registry: c.Registry, Prefix: c.prefix(), Path: v.Path()}
	if p := d.TemplatePath(); p != "" {
		cc.Path = p
	}
	nodes, err := entry.Compiler.Compile(d, cc)
	if err != nil {
		return pipeline.None(), err
	}
	return pipeline.Restart(nodes...), nil
}
