// Package ast defines the template syntax tree rewritten by the pipeline.
//
// The node set is closed: every node type lives in this package and the
// traversal switches over Kind exhaustively. Nodes are mutable; passes edit
// children and attributes in place or replace whole nodes through the
// pipeline's action protocol.
package ast

import "fmt"

// Kind identifies a node variant.
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindFragment
	KindComponent
	KindDirective
	KindOutput
	KindText
	KindRawBody
	KindHostCode
)

var kindNames = [...]string{
	KindDocument:  "Document",
	KindElement:   "Element",
	KindFragment:  "Fragment",
	KindComponent: "Component",
	KindDirective: "Directive",
	KindOutput:    "Output",
	KindText:      "Text",
	KindRawBody:   "RawBody",
	KindHostCode:  "HostCode",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Position is a 1-based source location.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is any tree node.
type Node interface {
	Kind() Kind
	Position() Position
	// TemplatePath is the template the node originated from; it differs from
	// the document's path for nodes pulled in from included files.
	TemplatePath() string
	// Parent is a lookup-only back-reference set by the traversal each time
	// the node is placed. It never implies ownership.
	Parent() Node

	meta() *Meta
}

// Container is implemented by every node whose children the pipeline walks:
// Document, Element, Fragment, Component and Directive.
type Container interface {
	Node
	Children() []Node
	SetChildren([]Node)
}

// Attributed is implemented by nodes carrying attributes:
// Element, Fragment and Component.
type Attributed interface {
	Container
	Attributes() []*Attribute
	SetAttributes([]*Attribute)
}

// Meta holds the fields shared by all nodes.
type Meta struct {
	Pos  Position
	Path string

	parent Node
}

func (m *Meta) Position() Position   { return m.Pos }
func (m *Meta) TemplatePath() string { return m.Path }
func (m *Meta) Parent() Node         { return m.parent }
func (m *Meta) meta() *Meta          { return m }

// SetParent records the lookup-only parent reference of n.
func SetParent(n, parent Node) {
	n.meta().parent = parent
}

// At returns a Meta for the given location, for use in composite literals.
func At(path string, line, column int) Meta {
	return Meta{Pos: Position{Line: line, Column: column}, Path: path}
}

// Document is the compilation unit and the root of the traversal.
type Document struct {
	Meta
	Nodes []Node
}

func (*Document) Kind() Kind             { return KindDocument }
func (d *Document) Children() []Node     { return d.Nodes }
func (d *Document) SetChildren(c []Node) { d.Nodes = c }

// Element is a literal tag.
type Element struct {
	Meta
	Tag         string
	Attrs       []*Attribute
	Nodes       []Node
	SelfClosing bool
	// DynamicTag, when set, is an expression producing the tag name at runtime.
	DynamicTag string
}

func (*Element) Kind() Kind                     { return KindElement }
func (e *Element) Children() []Node             { return e.Nodes }
func (e *Element) SetChildren(c []Node)         { e.Nodes = c }
func (e *Element) Attributes() []*Attribute     { return e.Attrs }
func (e *Element) SetAttributes(a []*Attribute) { e.Attrs = a }

// Fragment groups children without emitting a tag.
type Fragment struct {
	Meta
	Attrs []*Attribute
	Nodes []Node
}

func (*Fragment) Kind() Kind                     { return KindFragment }
func (f *Fragment) Children() []Node             { return f.Nodes }
func (f *Fragment) SetChildren(c []Node)         { f.Nodes = c }
func (f *Fragment) Attributes() []*Attribute     { return f.Attrs }
func (f *Fragment) SetAttributes(a []*Attribute) { f.Attrs = a }

// Component is an unresolved custom element reference such as <x-card>.
type Component struct {
	Meta
	Namespace string // "x" in <x-card>
	Name      string // "card" in <x-card>
	Attrs     []*Attribute
	Nodes     []Node
}

func (*Component) Kind() Kind                     { return KindComponent }
func (c *Component) Children() []Node             { return c.Nodes }
func (c *Component) SetChildren(n []Node)         { c.Nodes = n }
func (c *Component) Attributes() []*Attribute     { return c.Attrs }
func (c *Component) SetAttributes(a []*Attribute) { c.Attrs = a }

// TagName returns the tag as written, e.g. "x-card".
func (c *Component) TagName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "-" + c.Name
}

// Directive is a prefix:name="expr" construct after extraction.
type Directive struct {
	Meta
	Name  string // without prefix
	Expr  string
	Nodes []Node

	// Paired is the follower found by pairing. Lookup only.
	Paired *Directive
	// LedBy is the leader that paired with this directive. Lookup only.
	LedBy *Directive
	// Consumed marks a follower compiled only through its leader.
	Consumed bool
}

func (*Directive) Kind() Kind             { return KindDirective }
func (d *Directive) Children() []Node     { return d.Nodes }
func (d *Directive) SetChildren(c []Node) { d.Nodes = c }

// Text is literal character data.
type Text struct {
	Meta
	Content string
}

func (*Text) Kind() Kind { return KindText }

// RawBody is an unparsed literal region.
type RawBody struct {
	Meta
	Content string
}

func (*RawBody) Kind() Kind { return KindRawBody }

// HostCode is passthrough source of the generated language.
type HostCode struct {
	Meta
	Code string
}

func (*HostCode) Kind() Kind { return KindHostCode }

// Code creates a HostCode node located at the given node.
func Code(at Node, code string) *HostCode {
	return &HostCode{Meta: Meta{Pos: at.Position(), Path: at.TemplatePath()}, Code: code}
}

// Group wraps nodes in a Fragment located at the given node.
func Group(at Node, nodes ...Node) *Fragment {
	return &Fragment{Meta: Meta{Pos: at.Position(), Path: at.TemplatePath()}, Nodes: nodes}
}
