package pipeline_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/pipeline"
)

func label(n ast.Node) string {
	switch t := n.(type) {
	case *ast.Text:
		return t.Content
	case *ast.Element:
		return "<" + t.Tag + ">"
	default:
		return n.Kind().String()
	}
}

// recorder appends "pass:hook:node" for every call into a shared log.
func recorder(name string, log *[]string) pipeline.Func {
	return pipeline.Func{
		PassName: name,
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			*log = append(*log, name+":before:"+label(n))
			return pipeline.None(), nil
		},
		AfterFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			*log = append(*log, name+":after:"+label(n))
			return pipeline.None(), nil
		},
	}
}

func doc(nodes ...ast.Node) *ast.Document {
	return &ast.Document{Nodes: nodes}
}

func text(s string) *ast.Text {
	return &ast.Text{Content: s}
}

func TestPriorityOrderPerNode(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(20, recorder("late", &log))
	p.Register(10, recorder("early", &log))

	_, err := p.Execute(doc(text("a")))
	require.NoError(t, err)

	want := []string{
		"early:before:Document",
		"late:before:Document",
		"early:before:a",
		"late:before:a",
		"early:after:a",
		"late:after:a",
		"early:after:Document",
		"late:after:Document",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"early", "late"}, p.Passes())
}

func TestEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(5, recorder("first", &log))
	p.Register(5, recorder("second", &log))
	p.Register(1, recorder("zero", &log))
	p.Register(5, recorder("third", &log))

	assert.Equal(t, []string{"zero", "first", "second", "third"}, p.Passes())

	_, err := p.Execute(doc())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"zero:before:Document", "first:before:Document", "second:before:Document", "third:before:Document",
		"zero:after:Document", "first:after:Document", "second:after:Document", "third:after:Document",
	}, log)
}

// replacer swaps Text "a" for Text "b" and "c".
func replacer(restart bool) pipeline.Func {
	return pipeline.Func{
		PassName: "replacer",
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if t, ok := n.(*ast.Text); ok && t.Content == "a" {
				if restart {
					return pipeline.Restart(text("b"), text("c")), nil
				}
				return pipeline.Replace(text("b"), text("c")), nil
			}
			return pipeline.None(), nil
		},
	}
}

func TestReplaceResumesAtNextPass(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(1, recorder("one", &log))
	p.Register(2, replacer(false))
	p.Register(3, recorder("three", &log))

	out, err := p.Execute(doc(text("a")))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"one:before:Document", "three:before:Document",
		"one:before:a",
		// b and c skip "one" and "replacer"
		"three:before:b", "three:after:b",
		"three:before:c", "three:after:c",
		"one:after:Document", "three:after:Document",
	}, log)
	require.Len(t, out.Nodes, 2)
	assert.Equal(t, "b", out.Nodes[0].(*ast.Text).Content)
	assert.Equal(t, "c", out.Nodes[1].(*ast.Text).Content)
}

func TestRestartResumesAtSamePass(t *testing.T) {
	var seen []string
	p := pipeline.New()
	r := replacer(true)
	inner := r.BeforeFunc
	r.BeforeFunc = func(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
		seen = append(seen, label(n))
		return inner(v, n)
	}
	p.Register(1, r)

	_, err := p.Execute(doc(text("a")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Document", "a", "b", "c"}, seen)
}

func TestReplaceStopsFurtherBeforeHooksAndChildren(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "drop-div",
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if e, ok := n.(*ast.Element); ok && e.Tag == "div" {
				return pipeline.Remove(), nil
			}
			return pipeline.None(), nil
		},
	})
	p.Register(2, recorder("rec", &log))

	out, err := p.Execute(doc(&ast.Element{Tag: "div", Nodes: []ast.Node{text("inner")}}, text("x")))
	require.NoError(t, err)
	assert.NotContains(t, log, "rec:before:<div>")
	assert.NotContains(t, log, "rec:before:inner")
	assert.NotContains(t, log, "rec:after:<div>")
	require.Len(t, out.Nodes, 1)
}

func TestSkipChildrenStillRunsAfter(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "skip",
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if _, ok := n.(*ast.Element); ok {
				return pipeline.SkipChildren(), nil
			}
			return pipeline.None(), nil
		},
	})
	p.Register(2, recorder("rec", &log))

	_, err := p.Execute(doc(&ast.Element{Tag: "p", Nodes: []ast.Node{text("hidden")}}))
	require.NoError(t, err)

	assert.Contains(t, log, "rec:before:<p>")
	assert.Contains(t, log, "rec:after:<p>")
	assert.NotContains(t, log, "rec:before:hidden")
}

func TestAfterReplacementSeesProcessedChildren(t *testing.T) {
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "upper",
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if t, ok := n.(*ast.Text); ok {
				t.Content = "[" + t.Content + "]"
			}
			return pipeline.None(), nil
		},
	})
	p.Register(2, pipeline.Func{
		PassName: "unwrap",
		AfterFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if f, ok := n.(*ast.Fragment); ok {
				return pipeline.Replace(f.Nodes...), nil
			}
			return pipeline.None(), nil
		},
	})

	out, err := p.Execute(doc(&ast.Fragment{Nodes: []ast.Node{text("a"), text("b")}}))
	require.NoError(t, err)
	require.Len(t, out.Nodes, 2)
	// Children were processed once, before the fragment was replaced; the
	// replacements resume after "unwrap" so "upper" does not run again.
	assert.Equal(t, "[a]", out.Nodes[0].(*ast.Text).Content)
	assert.Equal(t, "[b]", out.Nodes[1].(*ast.Text).Content)
	assert.Same(t, out, out.Nodes[0].Parent())
}

func TestExecuteMustYieldOneDocument(t *testing.T) {
	tests := []struct {
		name string
		act  func() pipeline.Action
	}{
		{"removed", pipeline.Remove},
		{"two documents", func() pipeline.Action { return pipeline.Replace(doc(), doc()) }},
		{"not a document", func() pipeline.Action { return pipeline.Replace(text("x")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pipeline.New()
			p.Register(1, pipeline.Func{
				PassName: "bad",
				AfterFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
					if n.Kind() == ast.KindDocument {
						return tt.act(), nil
					}
					return pipeline.None(), nil
				},
			})
			_, err := p.Execute(doc())
			require.Error(t, err)
			assert.True(t, diag.IsKind(err, diag.KindInternal))
			assert.True(t, diag.IsCode(err, diag.ErrPipelineResult))
		})
	}
}

func TestErrorAbortsAndGetsLocation(t *testing.T) {
	var log []string
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "fail",
		BeforeFunc: func(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if t, ok := n.(*ast.Text); ok && t.Content == "bad" {
				return pipeline.None(), diag.Syntax(diag.ErrDirectiveSyntax, "bad text")
			}
			return pipeline.None(), nil
		},
	})
	p.Register(2, recorder("rec", &log))

	bad := &ast.Text{Meta: ast.At("", 3, 7), Content: "bad"}
	d := doc(bad, text("after"))
	d.Path = "page.html"

	out, err := p.Execute(d)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, "bad text (template: page.html line:3 column:7)", err.Error())
	assert.NotContains(t, log, "rec:before:after")
}

func TestNonDiagErrorsPassThrough(t *testing.T) {
	sentinel := errors.New("io failure")
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "fail",
		AfterFunc: func(*pipeline.Visit, ast.Node) (pipeline.Action, error) {
			return pipeline.None(), sentinel
		},
	})
	_, err := p.Execute(doc())
	assert.ErrorIs(t, err, sentinel)
}

func TestVisitState(t *testing.T) {
	type key struct{}
	var depths []string
	p := pipeline.New()
	p.Register(1, pipeline.Func{
		PassName: "state",
		BeforeFunc: func(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if n.Kind() == ast.KindDocument {
				v.SetValue(key{}, 0)
				assert.Nil(t, v.Parent())
			}
			v.SetValue(key{}, v.Value(key{}).(int)+1)
			parent := "none"
			if v.Parent() != nil {
				parent = label(v.Parent())
			}
			depths = append(depths, fmt.Sprintf("%s@%d<%s>%s", label(n), v.Depth(), parent, v.Pass()))
			return pipeline.None(), nil
		},
		AfterFunc: func(v *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
			if n.Kind() == ast.KindDocument {
				assert.Equal(t, 3, v.Value(key{}))
				assert.Equal(t, "views/a.html", v.Path())
			}
			return pipeline.None(), nil
		},
	})

	d := doc(&ast.Element{Tag: "p", Nodes: []ast.Node{text("x")}})
	d.Path = "views/a.html"
	_, err := p.Execute(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Document@0<none>state", "<p>@1<Document>state", "x@2<<p>>state"}, depths)
}

func TestMaxDepth(t *testing.T) {
	p := pipeline.New(pipeline.WithMaxDepth(2))
	p.Register(1, pipeline.Func{PassName: "noop"})

	deep := doc(&ast.Element{Tag: "a", Nodes: []ast.Node{&ast.Element{Tag: "b", Nodes: []ast.Node{text("x")}}}})
	_, err := p.Execute(deep)
	require.Error(t, err)
	assert.True(t, diag.IsKind(err, diag.KindSyntax))

	_, err = p.Execute(doc(&ast.Element{Tag: "a", Nodes: []ast.Node{text("x")}}))
	assert.NoError(t, err)
}

func TestTelemetryAndDebug(t *testing.T) {
	p := pipeline.New(pipeline.WithTelemetryTiming(), pipeline.WithDebugDetailed())
	p.Register(1, replacer(false))

	res, err := p.ExecuteWithObservability(doc(text("a"), &ast.Element{Tag: "p"}))
	require.NoError(t, err)
	require.NotNil(t, res.Telemetry)

	// Document, a, p, b, c
	assert.Equal(t, 5, res.Telemetry.NodesVisited)
	assert.Equal(t, 1, res.Telemetry.Replacements)
	assert.Equal(t, 0, res.Telemetry.Restarts)
	// <p> opens a level even without children
	assert.Equal(t, 2, res.Telemetry.MaxDepth)
	assert.Contains(t, res.Telemetry.PassTime, "replacer")

	var events []string
	for _, e := range res.DebugEvents {
		events = append(events, e.Event)
	}
	assert.Contains(t, events, "replace")
	assert.Contains(t, events, "before")
	assert.Contains(t, events, "enter")

	res, err = pipeline.New().ExecuteWithObservability(doc())
	require.NoError(t, err)
	assert.Nil(t, res.Telemetry)
	assert.Nil(t, res.DebugEvents)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "none", pipeline.None().String())
	assert.Equal(t, "skip-children", pipeline.SkipChildren().String())
	assert.Equal(t, "replace", pipeline.Replace().String())
	assert.Equal(t, "restart", pipeline.Restart().String())
	assert.True(t, pipeline.Remove().Replaces())
	assert.Empty(t, pipeline.Remove().Nodes())
	assert.True(t, pipeline.None().IsNone())
}
