package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/weave/core/ast"
)

func TestAttributeSingleValueForm(t *testing.T) {
	a := ast.StaticAttr("class", "card")
	v, ok := a.Static()
	require.True(t, ok)
	assert.Equal(t, "card", v)
	assert.Nil(t, a.Dynamic())
	assert.Nil(t, a.Parts())

	out := ast.Escaped("label")
	a.SetDynamic(out)
	assert.Equal(t, ast.AttrDynamic, a.ValueKind())
	_, ok = a.Static()
	assert.False(t, ok)
	assert.Same(t, out, a.Dynamic())

	a.SetBool()
	assert.Equal(t, ast.AttrBool, a.ValueKind())
	assert.Nil(t, a.Dynamic())
	assert.Empty(t, a.Outputs())
}

func TestSetMixedCollapses(t *testing.T) {
	out := ast.Escaped("x")

	a := ast.MixedAttr("title", ast.AttrPart{Text: "a"}, ast.AttrPart{Text: "b"})
	assert.Equal(t, ast.AttrStatic, a.ValueKind())
	v, _ := a.Static()
	assert.Equal(t, "ab", v)

	a = ast.MixedAttr("title", ast.AttrPart{Output: out})
	assert.Equal(t, ast.AttrDynamic, a.ValueKind())

	a = ast.MixedAttr("title", ast.AttrPart{Text: "a "}, ast.AttrPart{Output: out})
	assert.Equal(t, ast.AttrMixed, a.ValueKind())
	assert.Equal(t, []*ast.Output{out}, a.Outputs())
	assert.Len(t, a.AsParts(), 2)
}

func TestDirectiveName(t *testing.T) {
	tests := []struct {
		attr string
		name string
		ok   bool
	}{
		{"t:if", "if", true},
		{"t:foreach", "foreach", true},
		{"t:", "", false},
		{"class", "", false},
		{"x:if", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			name, ok := ast.BoolAttr(tt.attr).DirectiveName("t")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
		})
	}

	spread := ast.SpreadAttr(ast.Escaped("attrs"))
	_, ok := spread.DirectiveName("t")
	assert.False(t, ok)
}

func TestFindAttr(t *testing.T) {
	attrs := []*ast.Attribute{
		ast.SpreadAttr(ast.Escaped("attrs")),
		ast.StaticAttr("id", "main"),
	}
	i, a := ast.FindAttr(attrs, "id")
	assert.Equal(t, 1, i)
	assert.Equal(t, "id", a.Name)

	i, a = ast.FindAttr(attrs, "class")
	assert.Equal(t, -1, i)
	assert.Nil(t, a)
}

func TestContainersAndParents(t *testing.T) {
	text := &ast.Text{Content: "hi"}
	el := &ast.Element{Tag: "p", Nodes: []ast.Node{text}}
	doc := &ast.Document{Nodes: []ast.Node{el}}

	var c ast.Container = doc
	assert.Len(t, c.Children(), 1)

	ast.SetParent(text, el)
	ast.SetParent(el, doc)
	assert.Same(t, el, text.Parent())
	assert.Same(t, doc, el.Parent())
	assert.Nil(t, doc.Parent())

	for _, n := range []ast.Node{doc, el, &ast.Fragment{}, &ast.Component{}, &ast.Directive{}} {
		_, ok := n.(ast.Container)
		assert.True(t, ok, "%s should be a container", n.Kind())
	}
	for _, n := range []ast.Node{text, &ast.Output{}, &ast.RawBody{}, &ast.HostCode{}} {
		_, ok := n.(ast.Container)
		assert.False(t, ok, "%s should be a leaf", n.Kind())
	}
}

func TestEscapeContext(t *testing.T) {
	assert.True(t, ast.ContextJSON.IsJSON())
	assert.True(t, ast.ContextJSONAttribute.IsJSON())
	assert.False(t, ast.ContextScript.IsJSON())
	assert.Equal(t, "script", ast.ContextScript.String())
	assert.Equal(t, "Directive", ast.KindDirective.String())
}

func TestDump(t *testing.T) {
	out := ast.Escaped("label")
	out.Context = ast.ContextAttribute
	body := ast.Escaped("name")
	body.Pipes = []ast.Pipe{{Name: "truncate", Args: []string{"10"}}}
	body.Context = ast.ContextMarkup

	doc := &ast.Document{Nodes: []ast.Node{
		&ast.Element{
			Tag:   "img",
			Attrs: []*ast.Attribute{ast.DynamicAttr("alt", out), ast.BoolAttr("hidden")},
		},
		&ast.Directive{Name: "if", Expr: "ok", Nodes: []ast.Node{body}},
		&ast.HostCode{Code: "}"},
	}}

	want := "Document\n" +
		"  Element <img> alt=[{{label}} attribute] hidden\n" +
		"  Directive if \"ok\"\n" +
		"    Output {{name|truncate:10}} markup\n" +
		"  HostCode \"}\"\n"
	assert.Equal(t, want, ast.Dump(doc))
}

func TestCollect(t *testing.T) {
	a, b := ast.Escaped("a"), ast.Escaped("b")
	doc := &ast.Document{Nodes: []ast.Node{
		a,
		&ast.Element{Tag: "div", Nodes: []ast.Node{&ast.Fragment{Nodes: []ast.Node{b}}}},
	}}
	assert.Equal(t, []*ast.Output{a, b}, ast.Collect[*ast.Output](doc))
	assert.Len(t, ast.Collect[ast.Container](doc), 3)
}
