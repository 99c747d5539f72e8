package ast

import (
	"fmt"
	"strings"
)

// Dump renders n and its descendants as an indented outline, one node per
// line. It is meant for tests and the CLI text format.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(describe(n))
	b.WriteString("\n")
	if c, ok := n.(Container); ok {
		for _, child := range c.Children() {
			dump(b, child, depth+1)
		}
	}
}

func describe(n Node) string {
	switch t := n.(type) {
	case *Document:
		return "Document"
	case *Element:
		s := "Element <" + t.Tag + ">" + describeAttrs(t.Attrs)
		if t.DynamicTag != "" {
			s += " tag={" + t.DynamicTag + "}"
		}
		if t.SelfClosing {
			s += " /"
		}
		return s
	case *Fragment:
		return "Fragment" + describeAttrs(t.Attrs)
	case *Component:
		return "Component <" + t.TagName() + ">" + describeAttrs(t.Attrs)
	case *Directive:
		s := fmt.Sprintf("Directive %s %q", t.Name, t.Expr)
		if t.Paired != nil {
			s += " paired=" + t.Paired.Name
		}
		if t.Consumed {
			s += " consumed"
		}
		return s
	case *Output:
		return "Output " + describeOutput(t)
	case *Text:
		return fmt.Sprintf("Text %q", t.Content)
	case *RawBody:
		return fmt.Sprintf("RawBody %q", t.Content)
	case *HostCode:
		return fmt.Sprintf("HostCode %q", t.Code)
	default:
		return fmt.Sprintf("%T", n)
	}
}

func describeOutput(o *Output) string {
	var b strings.Builder
	b.WriteString("{{")
	b.WriteString(o.Expr)
	for _, p := range o.Pipes {
		b.WriteString("|")
		b.WriteString(p.Name)
		if len(p.Args) > 0 {
			b.WriteString(":")
			b.WriteString(strings.Join(p.Args, ","))
		}
	}
	b.WriteString("}}")
	if !o.Escape {
		b.WriteString(" raw")
	}
	b.WriteString(" ")
	b.WriteString(o.Context.String())
	return b.String()
}

func describeAttrs(attrs []*Attribute) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(" ")
		if a.Spread {
			b.WriteString("...")
			b.WriteString(describeOutput(a.Dynamic()))
			if len(a.Exclude) > 0 {
				b.WriteString(" except(" + strings.Join(a.Exclude, ",") + ")")
			}
			continue
		}
		b.WriteString(a.Name)
		switch a.ValueKind() {
		case AttrBool:
		case AttrStatic:
			v, _ := a.Static()
			fmt.Fprintf(&b, "=%q", v)
		default:
			b.WriteString("=[")
			for i, p := range a.AsParts() {
				if i > 0 {
					b.WriteString(" ")
				}
				if p.Output != nil {
					b.WriteString(describeOutput(p.Output))
				} else {
					fmt.Fprintf(&b, "%q", p.Text)
				}
			}
			b.WriteString("]")
		}
	}
	return b.String()
}
