// Package astfmt hands compiled trees to code generators.
//
// Canonicalize turns a compiled Document into plain data with no back
// references. The canonical form encodes to JSON for inspection and to
// canonical CBOR for stable bytes; Digest hashes the CBOR bytes so two
// compiles of the same template can be compared cheaply.
package astfmt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
)

// Version is the canonical format version.
const Version uint8 = 1

// Tree is the canonical form of a compiled Document.
type Tree struct {
	Version uint8  `json:"version" cbor:"1,keyasint"`
	Path    string `json:"path,omitempty" cbor:"2,keyasint,omitempty"`
	Nodes   []Node `json:"nodes" cbor:"3,keyasint"`
}

// Node is one canonical node. Type selects which fields are set.
type Node struct {
	Type string `json:"type" cbor:"1,keyasint"`
	Line int    `json:"line,omitempty" cbor:"2,keyasint,omitempty"`
	Col  int    `json:"col,omitempty" cbor:"3,keyasint,omitempty"`
	Path string `json:"path,omitempty" cbor:"4,keyasint,omitempty"`

	// element, fragment, component
	Tag         string `json:"tag,omitempty" cbor:"5,keyasint,omitempty"`
	DynamicTag  string `json:"dynamicTag,omitempty" cbor:"6,keyasint,omitempty"`
	SelfClosing bool   `json:"selfClosing,omitempty" cbor:"7,keyasint,omitempty"`
	Attrs       []Attr `json:"attrs,omitempty" cbor:"8,keyasint,omitempty"`
	Nodes       []Node `json:"nodes,omitempty" cbor:"9,keyasint,omitempty"`

	// text, raw, code
	Text string `json:"text,omitempty" cbor:"10,keyasint,omitempty"`

	// output
	Output *Output `json:"output,omitempty" cbor:"11,keyasint,omitempty"`
}

// Attr is a canonical attribute.
type Attr struct {
	Name    string     `json:"name,omitempty" cbor:"1,keyasint,omitempty"`
	Kind    string     `json:"kind" cbor:"2,keyasint"`
	Value   string     `json:"value,omitempty" cbor:"3,keyasint,omitempty"`
	Parts   []AttrPart `json:"parts,omitempty" cbor:"4,keyasint,omitempty"`
	Exclude []string   `json:"exclude,omitempty" cbor:"5,keyasint,omitempty"`
}

// AttrPart is literal text or an output of an attribute value.
type AttrPart struct {
	Text   string  `json:"text,omitempty" cbor:"1,keyasint,omitempty"`
	Output *Output `json:"output,omitempty" cbor:"2,keyasint,omitempty"`
}

// Output is a canonical dynamic expression.
type Output struct {
	Expr    string `json:"expr" cbor:"1,keyasint"`
	Escape  bool   `json:"escape" cbor:"2,keyasint"`
	Context string `json:"context" cbor:"3,keyasint"`
	Pipes   []Pipe `json:"pipes,omitempty" cbor:"4,keyasint,omitempty"`
}

// Pipe is a canonical pipe transform.
type Pipe struct {
	Name string   `json:"name" cbor:"1,keyasint"`
	Args []string `json:"args,omitempty" cbor:"2,keyasint,omitempty"`
}

// Canonicalize converts doc. It fails with an internal error when a
// Directive is still present: code generators only see compiled trees.
func Canonicalize(doc *ast.Document) (*Tree, error) {
	nodes, err := canonicalNodes(doc.Nodes, doc.TemplatePath())
	if err != nil {
		return nil, err
	}
	return &Tree{Version: Version, Path: doc.TemplatePath(), Nodes: nodes}, nil
}

func canonicalNodes(nodes []ast.Node, docPath string) ([]Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		cn, err := canonicalNode(n, docPath)
		if err != nil {
			return nil, err
		}
		if cn.Type == "" {
			return nil, diag.Internal(diag.ErrUncompiledNode, "node %d: unsupported %s", i, n.Kind())
		}
		out = append(out, cn)
	}
	return out, nil
}

func canonicalNode(n ast.Node, docPath string) (Node, error) {
	pos := n.Position()
	cn := Node{Line: pos.Line, Col: pos.Column}
	if p := n.TemplatePath(); p != docPath {
		cn.Path = p
	}

	var children []ast.Node
	switch t := n.(type) {
	case *ast.Element:
		cn.Type = "element"
		cn.Tag = t.Tag
		cn.DynamicTag = t.DynamicTag
		cn.SelfClosing = t.SelfClosing
		cn.Attrs = canonicalAttrs(t.Attrs)
		children = t.Nodes
	case *ast.Fragment:
		cn.Type = "fragment"
		cn.Attrs = canonicalAttrs(t.Attrs)
		children = t.Nodes
	case *ast.Component:
		cn.Type = "component"
		cn.Tag = t.TagName()
		cn.Attrs = canonicalAttrs(t.Attrs)
		children = t.Nodes
	case *ast.Text:
		cn.Type = "text"
		cn.Text = t.Content
	case *ast.RawBody:
		cn.Type = "raw"
		cn.Text = t.Content
	case *ast.HostCode:
		cn.Type = "code"
		cn.Text = t.Code
	case *ast.Output:
		cn.Type = "output"
		cn.Output = canonicalOutput(t)
	case *ast.Directive:
		err := diag.Internal(diag.ErrUncompiledNode, "directive %q was not compiled", t.Name)
		if pos.Line > 0 {
			path := t.TemplatePath()
			if path == "" {
				path = docPath
			}
			err.At(path, pos.Line, pos.Column)
		}
		return Node{}, err
	case *ast.Document:
		return Node{}, diag.Internal(diag.ErrUncompiledNode, "nested document")
	}

	nodes, err := canonicalNodes(children, docPath)
	if err != nil {
		return Node{}, err
	}
	cn.Nodes = nodes
	return cn, nil
}

func canonicalAttrs(attrs []*ast.Attribute) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		ca := Attr{Name: a.Name, Kind: a.ValueKind().String()}
		if a.Spread {
			ca.Kind = "spread"
			ca.Exclude = a.Exclude
		}
		switch a.ValueKind() {
		case ast.AttrStatic:
			ca.Value, _ = a.Static()
		case ast.AttrDynamic, ast.AttrMixed:
			for _, p := range a.AsParts() {
				cp := AttrPart{Text: p.Text}
				if p.Output != nil {
					cp.Output = canonicalOutput(p.Output)
				}
				ca.Parts = append(ca.Parts, cp)
			}
		}
		out[i] = ca
	}
	return out
}

func canonicalOutput(o *ast.Output) *Output {
	co := &Output{Expr: o.Expr, Escape: o.Escape, Context: o.Context.String()}
	for _, p := range o.Pipes {
		co.Pipes = append(co.Pipes, Pipe{Name: p.Name, Args: p.Args})
	}
	return co
}

// EncodeJSON renders the tree as indented JSON.
func EncodeJSON(t *Tree) ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("JSON encoding failed: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeCBOR renders the tree with canonical CBOR: equal trees give equal
// bytes.
func EncodeCBOR(t *Tree) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// DecodeCBOR reads a tree written by EncodeCBOR.
func DecodeCBOR(data []byte) (*Tree, error) {
	var t Tree
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if t.Version != Version {
		return nil, fmt.Errorf("unsupported tree version %d (want %d)", t.Version, Version)
	}
	return &t, nil
}

// Digest returns "blake2b:<hex>" of the tree's canonical CBOR bytes.
func Digest(t *Tree) (string, error) {
	data, err := EncodeCBOR(t)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return "blake2b:" + hex.EncodeToString(sum[:]), nil
}
