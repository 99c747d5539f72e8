package builtin

import (
	"fmt"
	"regexp"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/directive"
)

// "item in items" or "i, item in items"
var loopPattern = regexp.MustCompile(`^\s*(?:([A-Za-z_]\w*)\s*,\s*)?([A-Za-z_]\w*)\s+in\s+(\S.*?)\s*$`)

// Loop is a parsed foreach expression.
type Loop struct {
	Key        string // "_" when absent
	Value      string
	Collection string
}

// ParseLoop parses a foreach expression.
func ParseLoop(expr string) (Loop, bool) {
	m := loopPattern.FindStringSubmatch(expr)
	if m == nil {
		return Loop{}, false
	}
	key := m[1]
	if key == "" {
		key = "_"
	}
	return Loop{Key: key, Value: m[2], Collection: m[3]}, true
}

func (l Loop) header() string {
	return fmt.Sprintf("for %s, %s := range %s {", l.Key, l.Value, l.Collection)
}

func compileForeach(d *ast.Directive, cc *directive.Context) ([]ast.Node, error) {
	expr, err := requireExpr(d, cc, `a loop expression such as "item in items"`)
	if err != nil {
		return nil, err
	}
	loop, ok := ParseLoop(expr)
	if !ok {
		return nil, diag.Syntax(diag.ErrDirectiveSyntax,
			"%s expects \"item in items\" or \"key, item in items\", got %q", qualified(d.Name, cc), expr)
	}

	loopNodes := []ast.Node{ast.Code(d, loop.header()), body(d), ast.Code(d, "}")}
	if d.Paired == nil || !d.Paired.Consumed {
		return loopNodes, nil
	}

	empty := d.Paired
	out := []ast.Node{
		ast.Code(d, "if len("+loop.Collection+") == 0 {"),
		body(empty),
		ast.Code(empty, "} else {"),
	}
	out = append(out, loopNodes...)
	return append(out, ast.Code(d, "}")), nil
}
