package ast

// Inspect calls fn for n and, while fn returns true, for each descendant in
// depth-first order. Attribute outputs are not visited; use Attribute.Outputs.
func Inspect(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if c, ok := n.(Container); ok {
		for _, child := range c.Children() {
			Inspect(child, fn)
		}
	}
}

// Collect returns every node under root (inclusive) of type T.
func Collect[T Node](root Node) []T {
	var out []T
	Inspect(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}
