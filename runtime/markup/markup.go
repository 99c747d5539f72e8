// Package markup builds template trees from source text.
//
// Markup is tokenized with golang.org/x/net/html but nested strictly: every
// non-void element needs a matching end tag. On top of HTML it understands
//
//	{{ expr | pipe:arg }}   escaped output; a trailing "json" pipe pins the JSON context
//	{!! expr !!}            unescaped output
//	<x-name ...>            component references (namespace configurable)
//	<x-verbatim>...         raw body, not parsed
//	<x-dynamic tag="expr">  element whose tag name is computed at runtime
//	<?go ... ?>             host code
//
// Text is kept exactly as written; entities are not decoded. A "<" inside an
// expression must be followed by a space so the tokenizer reads it as text.
package markup

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/aledsdavies/weave/core/ast"
	"github.com/aledsdavies/weave/core/diag"
)

// DefaultNamespace is the component namespace (<x-card>).
const DefaultNamespace = "x"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Option configures Parse.
type Option func(*parser)

// WithComponentNamespace sets the component namespace.
func WithComponentNamespace(ns string) Option {
	return func(p *parser) {
		if ns != "" {
			p.namespace = ns
		}
	}
}

// ParseFile reads and parses the template at path.
func ParseFile(path string, opts ...Option) (*ast.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diag.Loader(diag.ErrTemplateNotFound, err, "template %q not found", path)
		}
		return nil, diag.Loader(diag.ErrTemplateRead, err, "cannot read template %q", path)
	}
	return Parse(path, src, opts...)
}

// Parse builds a Document from src. path is recorded on every node.
func Parse(path string, src []byte, opts ...Option) (*ast.Document, error) {
	p := &parser{
		path:      path,
		src:       src,
		namespace: DefaultNamespace,
		lines:     lineStarts(src),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.doc = &ast.Document{Meta: ast.At(path, 1, 1)}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type open struct {
	node ast.Container
	tag  string
}

type parser struct {
	path      string
	src       []byte
	namespace string
	lines     []int

	doc   *ast.Document
	stack []open

	tz   *html.Tokenizer
	next int // offset of the next token in src
}

func (p *parser) parse() error {
	p.restart(0)
	for {
		tt := p.tz.Next()
		raw := p.tz.Raw()
		start := p.next
		p.next += len(raw)

		var err error
		switch tt {
		case html.ErrorToken:
			if p.tz.Err() == io.EOF {
				return p.finish()
			}
			return p.errorAt(start, "%v", p.tz.Err())
		case html.TextToken:
			err = p.text(string(raw), start)
		case html.CommentToken:
			err = p.comment(string(raw), start)
		case html.DoctypeToken:
			p.append(&ast.Text{Meta: p.meta(start), Content: string(raw)})
		case html.StartTagToken, html.SelfClosingTagToken:
			err = p.startTag(string(raw), start, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			err = p.endTag(start)
		}
		if err != nil {
			return err
		}
	}
}

// restart tokenizes again from off, after a region read without the
// tokenizer.
func (p *parser) restart(off int) {
	p.tz = html.NewTokenizer(bytes.NewReader(p.src[off:]))
	p.next = off
}

func (p *parser) finish() error {
	if n := len(p.stack); n > 0 {
		top := p.stack[n-1]
		return p.errorAtPos(top.node.Position(), "unclosed <%s>", top.tag)
	}
	return nil
}

func (p *parser) top() ast.Container {
	if n := len(p.stack); n > 0 {
		return p.stack[n-1].node
	}
	return p.doc
}

func (p *parser) append(n ast.Node) {
	c := p.top()
	c.SetChildren(append(c.Children(), n))
}

func (p *parser) text(s string, start int) error {
	segs, err := interpolate(s, false)
	if err != nil {
		return p.wrap(err, start)
	}
	for _, seg := range segs {
		if seg.out != nil {
			seg.out.Meta = p.meta(start + seg.off)
			p.append(seg.out)
			continue
		}
		p.append(&ast.Text{Meta: p.meta(start + seg.off), Content: seg.text})
	}
	return nil
}

func (p *parser) comment(s string, start int) error {
	if !strings.HasPrefix(s, "<?go") {
		p.append(&ast.Text{Meta: p.meta(start), Content: s})
		return nil
	}
	body := start + len("<?go")
	end := bytes.Index(p.src[body:], []byte("?>"))
	if end < 0 {
		return p.errorAt(start, "unterminated <?go, expected ?>")
	}
	p.append(&ast.HostCode{Meta: p.meta(start), Code: strings.TrimSpace(string(p.src[body : body+end]))})
	p.restart(body + end + len("?>"))
	return nil
}

func (p *parser) startTag(raw string, start int, selfClosing bool) error {
	name, _ := p.tz.TagName()
	tag := string(name)

	attrs, err := p.attributes(raw, start, len(tag))
	if err != nil {
		return err
	}
	meta := p.meta(start)

	switch tag {
	case p.namespace + "-verbatim":
		return p.verbatim(tag, meta, selfClosing)
	case p.namespace + "-dynamic":
		return p.dynamic(tag, meta, attrs, selfClosing)
	}

	var node ast.Container
	void := false
	if rest, ok := strings.CutPrefix(tag, p.namespace+"-"); ok && rest != "" {
		node = &ast.Component{Meta: meta, Namespace: p.namespace, Name: rest, Attrs: attrs}
	} else {
		void = voidElements[tag]
		node = &ast.Element{Meta: meta, Tag: tag, Attrs: attrs, SelfClosing: selfClosing}
	}
	p.append(node)
	if !void && !selfClosing {
		p.stack = append(p.stack, open{node: node, tag: tag})
	}
	return nil
}

func (p *parser) verbatim(tag string, meta ast.Meta, selfClosing bool) error {
	if selfClosing {
		p.append(&ast.RawBody{Meta: meta})
		return nil
	}
	closing := "</" + tag + ">"
	end := strings.Index(strings.ToLower(string(p.src[p.next:])), closing)
	if end < 0 {
		return p.errorAtPos(meta.Pos, "unclosed <%s>", tag)
	}
	p.append(&ast.RawBody{Meta: meta, Content: string(p.src[p.next : p.next+end])})
	p.restart(p.next + end + len(closing))
	return nil
}

func (p *parser) dynamic(tag string, meta ast.Meta, attrs []*ast.Attribute, selfClosing bool) error {
	i, a := ast.FindAttr(attrs, "tag")
	expr, ok := "", false
	if a != nil {
		expr, ok = a.Static()
	}
	if !ok || strings.TrimSpace(expr) == "" {
		return p.errorAtPos(meta.Pos, "<%s> needs a tag=\"expr\" attribute", tag)
	}
	attrs = append(attrs[:i:i], attrs[i+1:]...)

	el := &ast.Element{Meta: meta, DynamicTag: strings.TrimSpace(expr), Attrs: attrs, SelfClosing: selfClosing}
	p.append(el)
	if !selfClosing {
		p.stack = append(p.stack, open{node: el, tag: tag})
	}
	return nil
}

func (p *parser) endTag(start int) error {
	name, _ := p.tz.TagName()
	tag := string(name)
	if voidElements[tag] {
		return nil
	}
	n := len(p.stack)
	if n == 0 {
		return p.errorAt(start, "unexpected </%s>", tag)
	}
	if top := p.stack[n-1]; top.tag != tag {
		return p.errorAt(start, "unexpected </%s>, expected </%s>", tag, top.tag)
	}
	p.stack = p.stack[:n-1]
	return nil
}

// attributes reads the current tag's attributes. raw is the tag source, used
// to locate each attribute and tell boolean attributes from empty values.
func (p *parser) attributes(raw string, start, nameLen int) ([]*ast.Attribute, error) {
	lower := strings.ToLower(raw)
	cursor := 1 + nameLen

	var attrs []*ast.Attribute
	for {
		key, val, more := p.tz.TagAttr()
		if len(key) == 0 && !more {
			break
		}
		name := string(key)
		at := cursor
		if i := strings.Index(lower[cursor:], name); i >= 0 {
			at = cursor + i
			cursor = at + len(name)
		}
		rest := strings.TrimLeft(lower[cursor:], " \t\r\n\f")
		hasValue := strings.HasPrefix(rest, "=")
		valueOff := cursor
		if hasValue {
			valueOff = len(lower) - len(rest) + 1
			valueOff += len(lower[valueOff:]) - len(strings.TrimLeft(lower[valueOff:], " \t\r\n\f"))
			cursor = valueOff
			if valueOff < len(lower) && (lower[valueOff] == '"' || lower[valueOff] == '\'') {
				q := lower[valueOff]
				valueOff++
				cursor = len(lower)
				if j := strings.IndexByte(lower[valueOff:], q); j >= 0 {
					cursor = valueOff + j + 1
				}
			} else if j := strings.IndexAny(lower[valueOff:], " \t\r\n\f>"); j >= 0 {
				cursor = valueOff + j
			}
		}

		attr, err := p.attribute(name, string(val), hasValue, start+valueOff)
		if err != nil {
			return nil, err
		}
		attr.Pos = p.meta(start + at).Pos
		attrs = append(attrs, attr)
		if !more {
			break
		}
	}
	return attrs, nil
}

func (p *parser) attribute(name, value string, hasValue bool, valueStart int) (*ast.Attribute, error) {
	if !hasValue {
		return ast.BoolAttr(name), nil
	}
	segs, err := interpolate(value, true)
	if err != nil {
		return nil, p.wrap(err, valueStart)
	}
	var parts []ast.AttrPart
	for _, seg := range segs {
		if seg.out != nil {
			seg.out.Meta = p.meta(valueStart + seg.off)
			parts = append(parts, ast.AttrPart{Output: seg.out})
			continue
		}
		parts = append(parts, ast.AttrPart{Text: seg.text})
	}
	if len(parts) == 0 {
		return ast.StaticAttr(name, ""), nil
	}
	return ast.MixedAttr(name, parts...), nil
}

func (p *parser) meta(off int) ast.Meta {
	line, col := p.position(off)
	return ast.At(p.path, line, col)
}

// position converts a byte offset to a 1-based line and rune column.
func (p *parser) position(off int) (int, int) {
	if off > len(p.src) {
		off = len(p.src)
	}
	line := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > off }) - 1
	col := utf8.RuneCount(p.src[p.lines[line]:off]) + 1
	return line + 1, col
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (p *parser) errorAt(off int, format string, args ...interface{}) error {
	line, col := p.position(off)
	return diag.Syntax(diag.ErrMarkupSyntax, format, args...).At(p.path, line, col)
}

func (p *parser) errorAtPos(pos ast.Position, format string, args ...interface{}) error {
	return diag.Syntax(diag.ErrMarkupSyntax, format, args...).At(p.path, pos.Line, pos.Column)
}

// wrap locates an interpolation error relative to the run starting at base.
func (p *parser) wrap(err error, base int) error {
	var oe *offsetError
	if errors.As(err, &oe) {
		line, col := p.position(base + oe.off)
		return oe.err.At(p.path, line, col)
	}
	return err
}
