package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/weave/core/ast"
)

func TestApplyMergeIntoExisting(t *testing.T) {
	el := &ast.Element{Tag: "div", Attrs: []*ast.Attribute{ast.StaticAttr("class", "card")}}
	out := ast.Escaped("classes")

	ApplyMerge(MergePolicy{Mode: MergeInto, Into: "class", Combine: Join(" ")}, el, out)

	require.Len(t, el.Attrs, 1)
	attr := el.Attrs[0]
	assert.Equal(t, ast.AttrMixed, attr.ValueKind())
	parts := attr.Parts()
	require.Len(t, parts, 3)
	assert.Equal(t, "card", parts[0].Text)
	assert.Equal(t, " ", parts[1].Text)
	assert.Same(t, out, parts[2].Output)
}

func TestApplyMergeIntoMissing(t *testing.T) {
	el := &ast.Element{Tag: "div", Attrs: []*ast.Attribute{ast.StaticAttr("id", "main")}}
	out := ast.Escaped("css")

	ApplyMerge(MergePolicy{Mode: MergeInto, Into: "style", Combine: Join("; ")}, el, out)

	require.Len(t, el.Attrs, 2)
	_, style := ast.FindAttr(el.Attrs, "style")
	require.NotNil(t, style)
	assert.Same(t, out, style.Dynamic())
}

func TestApplyMergeIntoBlank(t *testing.T) {
	el := &ast.Element{Tag: "div", Attrs: []*ast.Attribute{ast.StaticAttr("class", "  ")}}
	out := ast.Escaped("classes")

	ApplyMerge(MergePolicy{Mode: MergeInto, Into: "class", Combine: Join(" ")}, el, out)

	assert.Same(t, out, el.Attrs[0].Dynamic())
}

func TestApplyMergeExclude(t *testing.T) {
	el := &ast.Element{Tag: "input", Attrs: []*ast.Attribute{
		ast.StaticAttr("type", "text"),
		ast.StaticAttr("class", "field"),
		ast.BoolAttr("required"),
	}}
	out := ast.Escaped("attrs")

	ApplyMerge(MergePolicy{Mode: MergeExclude, Exclude: []string{"class", "style"}}, el, out)

	require.Len(t, el.Attrs, 4)
	spread := el.Attrs[3]
	assert.True(t, spread.Spread)
	assert.Same(t, out, spread.Dynamic())
	assert.Equal(t, []string{"class", "style", "type", "required"}, spread.Exclude)
}
