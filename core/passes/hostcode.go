package passes

import (
	"strings"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/pipeline"
)

// HostCode normalizes compiled output once a container's children are done:
// attribute-less fragments are flattened into their parent, adjacent host
// code blocks are joined by newlines and blank ones dropped.
type HostCode struct {
	pipeline.Base
}

func (*HostCode) Name() string { return "host-code" }

func (*HostCode) After(_ *pipeline.Visit, n ast.Node) (pipeline.Action, error) {
	c, ok := n.(ast.Container)
	if !ok {
		return pipeline.None(), nil
	}
	out := normalize(c.Children(), nil)
	for _, child := range out {
		ast.SetParent(child, c)
	}
	c.SetChildren(out)
	return pipeline.None(), nil
}

func normalize(kids, out []ast.Node) []ast.Node {
	for _, child := range kids {
		switch t := child.(type) {
		case *ast.Fragment:
			if len(t.Attrs) == 0 {
				out = normalize(t.Nodes, out)
				continue
			}
		case *ast.HostCode:
			if strings.TrimSpace(t.Code) == "" {
				continue
			}
			if n := len(out); n > 0 {
				if prev, ok := out[n-1].(*ast.HostCode); ok {
					out[n-1] = &ast.HostCode{Meta: ast.Meta{Pos: prev.Pos, Path: prev.Path}, Code: prev.Code + "\n" + t.Code}
					continue
				}
			}
		}
		out = append(out, child)
	}
	return out
}
