// Package compiler wires a directive registry and the standard passes into a
// pipeline and checks the handoff contract of the result: no Directive
// survives and every Output carries an escaping context.
package compiler

import (
	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
	"github.com/aledsdavies/weave/core/directive/builtin"
	"github.com/aledsdavies/weave/core/invariant"
	"github.com/aledsdavies/weave/core/passes"
	"github.com/aledsdavies/weave/core/pipeline"
)

// Compiler compiles template trees. It is safe for concurrent use.
type Compiler struct {
	registry *directive.Registry
	pipeline *pipeline.Pipeline
	settings passes.Settings
}

// Result is the compiled tree plus observability data.
type Result struct {
	Document    *ast.Document
	Telemetry   *pipeline.Telemetry
	DebugEvents []pipeline.DebugEvent
}

type extraPass struct {
	priority int
	pass     pipeline.Pass
}

type options struct {
	prefix    string
	namespace string
	distance  *int
	extra     []extraPass
	pipeline  []pipeline.Option
}

// Option configures a Compiler.
type Option func(*options)

// WithPrefix sets the directive attribute prefix (default "t").
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithComponentNamespace sets the namespace of element-claiming directives
// (default "x", as in <x-if>).
func WithComponentNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithSuggestDistance sets the largest edit distance suggested for unknown
// directive names. Zero disables suggestions.
func WithSuggestDistance(d int) Option {
	return func(o *options) { o.distance = &d }
}

// WithPass registers an additional pass, e.g. at passes.PriorityInheritance.
func WithPass(priority int, pass pipeline.Pass) Option {
	return func(o *options) { o.extra = append(o.extra, extraPass{priority, pass}) }
}

// WithPipelineOptions forwards telemetry, debug and depth options.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) { o.pipeline = append(o.pipeline, opts...) }
}

// New creates a compiler over registry.
func New(registry *directive.Registry, opts ...Option) *Compiler {
	invariant.NotNil(registry, "registry")

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.distance != nil {
		registry.SetSuggestDistance(*o.distance)
	}

	if o.prefix == "" {
		o.prefix = passes.DefaultPrefix
	}
	if o.namespace == "" {
		o.namespace = passes.DefaultNamespace
	}
	s := passes.Settings{Registry: registry, Prefix: o.prefix, Namespace: o.namespace}
	p := pipeline.New(o.pipeline...)
	passes.Register(p, s)
	for _, e := range o.extra {
		p.Register(e.priority, e.pass)
	}
	return &Compiler{registry: registry, pipeline: p, settings: s}
}

// Default creates a compiler over the built-in directives.
func Default(opts ...Option) *Compiler {
	return New(builtin.NewRegistry(), opts...)
}

// Registry returns the directive registry.
func (c *Compiler) Registry() *directive.Registry { return c.registry }

// Prefix returns the directive attribute prefix.
func (c *Compiler) Prefix() string { return c.settings.Prefix }

// Namespace returns the namespace of element-claiming directives.
func (c *Compiler) Namespace() string { return c.settings.Namespace }

// Passes returns the pass names in execution order.
func (c *Compiler) Passes() []string { return c.pipeline.Passes() }

// Compile rewrites doc. doc is modified in place; on error it must be
// discarded.
func (c *Compiler) Compile(doc *ast.Document) (*Result, error) {
	res, err := c.pipeline.ExecuteWithObservability(doc)
	if err != nil {
		return nil, err
	}
	if err := verify(res.Document); err != nil {
		return nil, err
	}
	return &Result{Document: res.Document, Telemetry: res.Telemetry, DebugEvents: res.DebugEvents}, nil
}

// verify checks the code generator's preconditions.
func verify(doc *ast.Document) error {
	var err *diag.Error
	ast.Inspect(doc, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch t := n.(type) {
		case *ast.Directive:
			err = located(diag.Internal(diag.ErrUncompiledNode,
				"directive %q survived compilation", t.Name), t, doc)
		case *ast.Output:
			err = checkOutput(t, doc)
		case ast.Attributed:
			for _, a := range t.Attributes() {
				for _, out := range a.Outputs() {
					if err = checkOutput(out, doc); err != nil {
						return false
					}
				}
			}
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	return nil
}

func checkOutput(out *ast.Output, doc *ast.Document) *diag.Error {
	if out.Context != ast.ContextUnset || !out.Escape {
		return nil
	}
	return located(diag.Internal(diag.ErrUncompiledNode,
		"output %q has no escaping context", out.Expr), out, doc)
}

func located(err *diag.Error, n ast.Node, doc *ast.Document) *diag.Error {
	pos := n.Position()
	if pos.Line == 0 {
		return err
	}
	path := n.TemplatePath()
	if path == "" {
		path = doc.TemplatePath()
	}
	return err.At(path, pos.Line, pos.Column)
}
