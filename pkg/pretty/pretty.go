// Package pretty renders a parsed tree as indented, deterministic text.
//
// A node whose fields hold no structural child is a leaf and renders on
// one line:
//
//	Name(id='x', ctx=Load())
//
// Every other node renders as a block, one field per line, each line
// ending with a comma:
//
//	If(
//	    test=Name(id='x', ctx=Load()),
//	    body=[Pass()],
//	    orelse=[],
//	)
package pretty

import (
	"context"
	"io"
	"strings"

	"github.com/skrider/astpretty/pkg/tree"
)

// Parser turns source text into a tree. Errors are returned to the caller
// of FormatSource unchanged.
type Parser interface {
	Parse(ctx context.Context, name string, src []byte) (*tree.Node, error)
}

// Formatter is immutable and safe for concurrent use.
type Formatter struct {
	cfg Config
}

func New(opts ...Option) *Formatter {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Formatter{cfg: cfg.normalized()}
}

func (f *Formatter) Config() Config { return f.cfg }

// Format renders v. Nodes render inline when they are leaves and as a
// block at the configured indent level otherwise; primitives and
// sequences render inline.
func (f *Formatter) Format(v tree.Value) string {
	p := f.printer(v.Node())
	switch v.Kind() {
	case tree.KindNode:
		return p.format(v, f.cfg.IndentLevel)
	default:
		return p.inline(v)
	}
}

func (f *Formatter) FormatNode(n *tree.Node) string {
	return f.Format(tree.NodeValue(n))
}

// FormatSource parses src with p and formats the resulting tree.
func (f *Formatter) FormatSource(ctx context.Context, p Parser, name string, src []byte) (string, error) {
	root, err := p.Parse(ctx, name, src)
	if err != nil {
		return "", err
	}
	return f.FormatNode(root), nil
}

// Print writes the formatted value followed by a newline.
func (f *Formatter) Print(w io.Writer, v tree.Value) error {
	_, err := io.WriteString(w, f.Format(v)+"\n")
	return err
}

func Format(v tree.Value, opts ...Option) string {
	return New(opts...).Format(v)
}

// FormatNode renders n with a formatter built from opts.
func FormatNode(n *tree.Node, opts ...Option) string {
	return New(opts...).FormatNode(n)
}

func Print(w io.Writer, v tree.Value, opts ...Option) error {
	return New(opts...).Print(w, v)
}

func (f *Formatter) printer(root *tree.Node) *printer {
	lit := f.cfg.Literals
	if lit == nil && root != nil {
		lit = root.Schema().Literals()
	}
	if lit == nil {
		lit = tree.GoLiterals
	}
	return &printer{cfg: f.cfg, lit: lit}
}

type printer struct {
	cfg Config
	lit tree.LiteralStyle
}

func (p *printer) indent(depth int) string {
	return strings.Repeat(p.cfg.Indent, depth)
}

// format dispatches a value found at depth: structural non-leaf nodes
// become blocks, everything else is inline.
func (p *printer) format(v tree.Value, depth int) string {
	if !tree.IsStructural(v) || tree.IsLeaf(v.Node()) {
		return p.inline(v)
	}
	return p.block(v.Node(), depth)
}

func (p *printer) block(n *tree.Node, depth int) string {
	names := tree.FieldNames(n, p.cfg.ShowOffsets)
	lines := make([]string, 0, len(names)+2)
	lines = append(lines, p.cfg.NamespacePrefix+n.Type()+"(")

	fieldIndent := p.indent(depth + 1)
	for _, name := range names {
		v := n.Field(name)
		var repr string
		switch v.Kind() {
		case tree.KindSequence:
			repr = p.sequence(v.Elems(), depth)
		case tree.KindNode:
			repr = p.format(v, depth+1)
		default:
			repr = p.inline(v)
		}
		lines = append(lines, fieldIndent+name+"="+repr+",")
	}
	lines = append(lines, p.indent(depth)+")")
	return strings.Join(lines, "\n")
}

func (p *printer) sequence(elems []tree.Value, depth int) string {
	switch {
	case len(elems) == 0:
		return "[]"
	case len(elems) == 1 && tree.IsStructural(elems[0]) && tree.IsLeaf(elems[0].Node()):
		return "[" + p.inline(elems[0]) + "]"
	}

	var b strings.Builder
	b.WriteString("[\n")
	elemIndent := p.indent(depth + 2)
	for _, el := range elems {
		b.WriteString(elemIndent)
		b.WriteString(p.format(el, depth+2))
		b.WriteString(",\n")
	}
	b.WriteString(p.indent(depth + 1))
	b.WriteString("]")
	return b.String()
}

func (p *printer) inline(v tree.Value) string {
	var b strings.Builder
	p.writeInline(&b, v)
	return b.String()
}

func (p *printer) writeInline(b *strings.Builder, v tree.Value) {
	switch v.Kind() {
	case tree.KindNode, tree.KindMarker:
		n := v.Node()
		b.WriteString(p.cfg.NamespacePrefix)
		b.WriteString(n.Type())
		b.WriteByte('(')
		for i, name := range tree.FieldNames(n, p.cfg.ShowOffsets) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteByte('=')
			p.writeInline(b, n.Field(name))
		}
		b.WriteByte(')')
	case tree.KindSequence:
		b.WriteByte('[')
		for i, el := range v.Elems() {
			if i > 0 {
				b.WriteString(", ")
			}
			p.writeInline(b, el)
		}
		b.WriteByte(']')
	default:
		b.WriteString(p.lit.Literal(v.Primitive()))
	}
}
