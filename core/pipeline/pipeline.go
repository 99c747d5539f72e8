// Package pipeline runs ordered passes over a template tree in one walk.
//
// # Ordering
//
// Passes are registered with an integer priority and sorted ascending; equal
// priorities keep registration order. For every node the engine calls Before
// on each pass in that order, walks the children (unless a hook asked to skip
// them), then calls After in the same order.
//
// # Replacement
//
// The first hook that replaces a node ends that phase for the node. Each
// replacement node is visited in the same tree position, starting at the pass
// after the replacing one (Replace) or at the replacing pass itself (Restart).
// Children of any node always start at the first pass.
//
// # Errors
//
// The first hook error aborts the execution; no partial tree is returned.
// A *diag.Error without a location gets the location of the node whose hook
// failed.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/invariant"
)

// Pipeline is an ordered set of passes. A Pipeline is safe for concurrent
// Execute calls as long as its passes keep their working state in the Visit.
type Pipeline struct {
	passes []registered
	seq    int
	cfg    config
}

type registered struct {
	priority int
	seq      int
	pass     Pass
}

// Result holds the rewritten document and observability data.
type Result struct {
	Document    *ast.Document
	Telemetry   *Telemetry   // nil unless telemetry is enabled
	DebugEvents []DebugEvent // nil unless debug is enabled
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(&p.cfg)
	}
	return p
}

// Register adds pass at priority. Lower priorities run first.
func (p *Pipeline) Register(priority int, pass Pass) {
	invariant.NotNil(pass, "pass")
	invariant.Precondition(pass.Name() != "", "pass name must not be empty")

	p.seq++
	p.passes = append(p.passes, registered{priority: priority, seq: p.seq, pass: pass})
	sort.SliceStable(p.passes, func(i, j int) bool {
		if p.passes[i].priority != p.passes[j].priority {
			return p.passes[i].priority < p.passes[j].priority
		}
		return p.passes[i].seq < p.passes[j].seq
	})
}

// Passes returns pass names in execution order.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, r := range p.passes {
		names[i] = r.pass.Name()
	}
	return names
}

// Execute runs every pass over doc and returns the rewritten document.
func (p *Pipeline) Execute(doc *ast.Document) (*ast.Document, error) {
	res, err := p.ExecuteWithObservability(doc)
	if err != nil {
		return nil, err
	}
	return res.Document, nil
}

// ExecuteWithObservability is Execute returning telemetry and debug events.
func (p *Pipeline) ExecuteWithObservability(doc *ast.Document) (*Result, error) {
	invariant.NotNil(doc, "document")

	r := &run{
		passes: p.passes,
		cfg:    p.cfg,
		visit:  newVisit(doc.TemplatePath()),
	}
	if p.cfg.telemetry >= TelemetryBasic {
		r.telemetry = &Telemetry{}
		if p.cfg.telemetry >= TelemetryTiming {
			r.telemetry.PassTime = make(map[string]time.Duration)
		}
	}
	if p.cfg.debug >= DebugPaths {
		r.events = make([]DebugEvent, 0, 64)
	}

	start := time.Now()
	out, err := r.walk(doc, 0)
	if r.telemetry != nil {
		r.telemetry.TotalTime = time.Since(start)
	}
	if err != nil {
		return nil, err
	}

	if len(out) != 1 {
		return nil, diag.Internal(diag.ErrPipelineResult,
			"pipeline must yield exactly one Document, got %d nodes", len(out))
	}
	result, ok := out[0].(*ast.Document)
	if !ok {
		return nil, diag.Internal(diag.ErrPipelineResult,
			"pipeline must yield a Document, got %s", out[0].Kind())
	}
	invariant.Postcondition(r.visit.Depth() == 0, "ancestor stack must be empty after execution")

	return &Result{Document: result, Telemetry: r.telemetry, DebugEvents: r.events}, nil
}

type hook int

const (
	hookBefore hook = iota
	hookAfter
)

func (h hook) String() string {
	if h == hookBefore {
		return "before"
	}
	return "after"
}

// run is the state of one execution.
type run struct {
	passes    []registered
	cfg       config
	visit     *Visit
	telemetry *Telemetry
	events    []DebugEvent
}

// walk processes n starting at pass index start and returns the nodes that
// take its place.
func (r *run) walk(n ast.Node, start int) ([]ast.Node, error) {
	r.countNode()
	r.debug(DebugPaths, "enter", "", n, "")

	skip := false
	for i := start; i < len(r.passes); i++ {
		act, err := r.call(i, hookBefore, n)
		if err != nil {
			return nil, err
		}
		if act.Replaces() {
			return r.replace(n, i, act)
		}
		if act.Skips() {
			skip = true
			r.debug(DebugPaths, "skip", r.passes[i].pass.Name(), n, "")
		}
	}

	if c, ok := n.(ast.Container); ok && !skip {
		if err := r.children(c); err != nil {
			return nil, err
		}
	}

	for i := start; i < len(r.passes); i++ {
		act, err := r.call(i, hookAfter, n)
		if err != nil {
			return nil, err
		}
		if act.Replaces() {
			return r.replace(n, i, act)
		}
	}

	r.debug(DebugPaths, "exit", "", n, "")
	return []ast.Node{n}, nil
}

func (r *run) children(c ast.Container) error {
	depth := r.visit.Depth()
	if r.cfg.maxDepth > 0 && depth >= r.cfg.maxDepth {
		return locate(diag.Syntax(diag.ErrMarkupSyntax,
			"template nesting exceeds %d levels", r.cfg.maxDepth), c, r.visit.path)
	}
	if r.telemetry != nil && depth+1 > r.telemetry.MaxDepth {
		r.telemetry.MaxDepth = depth + 1
	}

	kids := c.Children()
	out := make([]ast.Node, 0, len(kids))
	r.visit.push(c)
	for _, child := range kids {
		res, err := r.walk(child, 0)
		if err != nil {
			r.visit.pop()
			return err
		}
		out = append(out, res...)
	}
	r.visit.pop()
	invariant.Invariant(r.visit.Depth() == depth, "ancestor stack must be balanced")

	for _, child := range out {
		ast.SetParent(child, c)
	}
	c.SetChildren(out)
	return nil
}

func (r *run) replace(n ast.Node, at int, act Action) ([]ast.Node, error) {
	next := at + 1
	event := "replace"
	if act.Restarts() {
		next = at
		event = "restart"
	}
	if r.telemetry != nil {
		r.telemetry.Replacements++
		if act.Restarts() {
			r.telemetry.Restarts++
		}
	}
	r.debug(DebugPaths, event, r.passes[at].pass.Name(), n, fmt.Sprintf("%d nodes", len(act.Nodes())))

	var out []ast.Node
	for _, repl := range act.Nodes() {
		invariant.NotNil(repl, "replacement node")
		res, err := r.walk(repl, next)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func (r *run) call(i int, h hook, n ast.Node) (Action, error) {
	pass := r.passes[i].pass
	r.visit.pass = pass.Name()
	r.debug(DebugDetailed, h.String(), pass.Name(), n, "")

	var started time.Time
	if r.telemetry != nil {
		r.telemetry.HookCalls++
		if r.telemetry.PassTime != nil {
			started = time.Now()
		}
	}

	var (
		act Action
		err error
	)
	if h == hookBefore {
		act, err = pass.Before(r.visit, n)
	} else {
		act, err = pass.After(r.visit, n)
	}

	if !started.IsZero() {
		r.telemetry.PassTime[pass.Name()] += time.Since(started)
	}
	if err != nil {
		return Action{}, locate(err, n, r.visit.path)
	}
	return act, nil
}

func (r *run) countNode() {
	if r.telemetry != nil {
		r.telemetry.NodesVisited++
	}
}

func (r *run) debug(level DebugLevel, event, pass string, n ast.Node, ctx string) {
	if r.cfg.debug < level {
		return
	}
	r.events = append(r.events, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Pass:      pass,
		Node:      n.Kind().String(),
		Depth:     r.visit.Depth(),
		Context:   ctx,
	})
}

// locate attaches the node's location to a diag error that has none.
func locate(err error, n ast.Node, docPath string) error {
	de, ok := diag.As(err)
	if !ok || de.HasLocation() {
		return err
	}
	pos := n.Position()
	if pos.Line == 0 {
		return err
	}
	path := n.TemplatePath()
	if path == "" {
		path = docPath
	}
	de.At(path, pos.Line, pos.Column)
	return err
}
