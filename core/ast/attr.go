package ast

import "strings"

// AttrKind tells which of the four value forms an attribute holds.
type AttrKind int

const (
	AttrBool    AttrKind = iota // <input disabled>
	AttrStatic                  // class="card"
	AttrDynamic                 // alt="{{ label }}"
	AttrMixed                   // class="card {{ extra }}"
)

func (k AttrKind) String() string {
	switch k {
	case AttrBool:
		return "bool"
	case AttrStatic:
		return "static"
	case AttrDynamic:
		return "dynamic"
	case AttrMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// AttrPart is one piece of a mixed value: literal text or an Output.
type AttrPart struct {
	Text   string
	Output *Output
}

// Attribute is a single attribute of an Element, Fragment or Component.
//
// The value is held in exactly one form; the constructors and setters keep
// the other forms empty.
type Attribute struct {
	Pos  Position
	Name string

	// Spread marks an attribute bag expanded at runtime; Name is empty and the
	// value is dynamic. Exclude lists names the spread must not emit.
	Spread  bool
	Exclude []string

	kind   AttrKind
	static string
	output *Output
	parts  []AttrPart
}

// BoolAttr creates a value-less attribute.
func BoolAttr(name string) *Attribute {
	return &Attribute{Name: name, kind: AttrBool}
}

// StaticAttr creates an attribute with a literal value.
func StaticAttr(name, value string) *Attribute {
	a := &Attribute{Name: name}
	a.SetStatic(value)
	return a
}

// DynamicAttr creates an attribute whose whole value is one Output.
func DynamicAttr(name string, out *Output) *Attribute {
	a := &Attribute{Name: name}
	a.SetDynamic(out)
	return a
}

// MixedAttr creates an attribute from interleaved text and outputs.
func MixedAttr(name string, parts ...AttrPart) *Attribute {
	a := &Attribute{Name: name}
	a.SetMixed(parts)
	return a
}

// SpreadAttr creates a spread of the attribute bag produced by out.
func SpreadAttr(out *Output, exclude ...string) *Attribute {
	a := &Attribute{Spread: true, Exclude: exclude}
	a.SetDynamic(out)
	return a
}

func (a *Attribute) ValueKind() AttrKind { return a.kind }

// Static returns the literal value; ok is false for other forms.
func (a *Attribute) Static() (value string, ok bool) {
	return a.static, a.kind == AttrStatic
}

// Dynamic returns the single Output of a dynamic value, or nil.
func (a *Attribute) Dynamic() *Output {
	if a.kind != AttrDynamic {
		return nil
	}
	return a.output
}

// Parts returns the parts of a mixed value, or nil.
func (a *Attribute) Parts() []AttrPart {
	if a.kind != AttrMixed {
		return nil
	}
	return a.parts
}

// Outputs returns every Output in the value, in order.
func (a *Attribute) Outputs() []*Output {
	switch a.kind {
	case AttrDynamic:
		return []*Output{a.output}
	case AttrMixed:
		var outs []*Output
		for _, p := range a.parts {
			if p.Output != nil {
				outs = append(outs, p.Output)
			}
		}
		return outs
	default:
		return nil
	}
}

func (a *Attribute) SetBool() {
	a.reset(AttrBool)
}

func (a *Attribute) SetStatic(value string) {
	a.reset(AttrStatic)
	a.static = value
}

func (a *Attribute) SetDynamic(out *Output) {
	a.reset(AttrDynamic)
	a.output = out
}

// SetMixed stores parts, collapsing to the static or dynamic form when the
// parts hold only text or a single output.
func (a *Attribute) SetMixed(parts []AttrPart) {
	var text strings.Builder
	outputs := 0
	for _, p := range parts {
		if p.Output != nil {
			outputs++
			continue
		}
		text.WriteString(p.Text)
	}
	switch {
	case outputs == 0:
		a.SetStatic(text.String())
	case outputs == 1 && len(parts) == 1:
		a.SetDynamic(parts[0].Output)
	default:
		a.reset(AttrMixed)
		a.parts = parts
	}
}

// AsParts returns the value as parts regardless of form. A bool value has no
// parts.
func (a *Attribute) AsParts() []AttrPart {
	switch a.kind {
	case AttrStatic:
		return []AttrPart{{Text: a.static}}
	case AttrDynamic:
		return []AttrPart{{Output: a.output}}
	case AttrMixed:
		return append([]AttrPart(nil), a.parts...)
	default:
		return nil
	}
}

func (a *Attribute) reset(kind AttrKind) {
	a.kind = kind
	a.static = ""
	a.output = nil
	a.parts = nil
}

// DirectiveName returns the unprefixed name when a is written prefix:name.
func (a *Attribute) DirectiveName(prefix string) (string, bool) {
	if a.Spread || prefix == "" {
		return "", false
	}
	name, ok := strings.CutPrefix(a.Name, prefix+":")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// FindAttr returns the index and attribute with the given name, or -1.
func FindAttr(attrs []*Attribute, name string) (int, *Attribute) {
	for i, a := range attrs {
		if !a.Spread && a.Name == name {
			return i, a
		}
	}
	return -1, nil
}
