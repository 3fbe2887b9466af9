// Package cst exposes raw tree-sitter concrete syntax trees as formattable
// nodes. Every named grammar node becomes a node of its grammar type;
// grammar fields become node fields, unlabelled named children are
// collected in children and terminal nodes carry their source text.
package cst

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	ts "github.com/smacker/go-tree-sitter"

	"github.com/skrider/astpretty/pkg/tree"
)

const (
	ChildrenField = "children"
	TextField     = "text"
)

// PositionFields are the attribute fields of every CST node.
var PositionFields = []string{"lineno", "col_offset", "end_lineno", "end_col_offset"}

var ErrSyntax = errors.New("syntax error")

// Parser parses one tree-sitter grammar. Each Parse builds a fresh schema
// whose descriptors are discovered from the tree itself.
type Parser struct {
	name     string
	lang     *ts.Language
	literals tree.LiteralStyle
}

func NewParser(name string, lang *ts.Language, literals tree.LiteralStyle) *Parser {
	return &Parser{name: name, lang: lang, literals: literals}
}

func (p *Parser) Name() string { return p.name }

func (p *Parser) Parse(ctx context.Context, name string, src []byte) (*tree.Node, error) {
	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)
	t, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	root := t.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		pt := bad.StartPoint()
		return nil, fmt.Errorf("%s:%d:%d: %w", name, pt.Row+1, pt.Column+1, ErrSyntax)
	}
	return Convert(tree.NewSchema(p.name, p.literals), root, src)
}

func firstError(n *ts.Node) *ts.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}

// Convert defines a descriptor in s for every named node type below root
// and builds the corresponding tree.
func Convert(s *tree.Schema, root *ts.Node, src []byte) (*tree.Node, error) {
	layouts, order := collect(root)
	for _, typ := range order {
		if _, err := s.Define(layouts[typ].descriptor(typ)); err != nil {
			return nil, err
		}
	}
	return build(s, layouts, root, src)
}

// layout is what one grammar type looked like across the whole tree.
// A field that ever holds a named node keeps only named nodes; anonymous
// tokens sharing its name, such as list separators, are dropped.
type layout struct {
	fields   []string
	seen     map[string]bool
	named    map[string]bool
	repeated map[string]bool
	children bool
	text     bool

	maxNamed map[string]int
	maxAnon  map[string]int
}

func newLayout() *layout {
	return &layout{
		seen:     make(map[string]bool),
		named:    make(map[string]bool),
		repeated: make(map[string]bool),
		maxNamed: make(map[string]int),
		maxAnon:  make(map[string]int),
	}
}

// finish decides which fields hold sequences once every instance has been
// seen.
func (l *layout) finish() {
	for _, field := range l.fields {
		count := l.maxAnon[field]
		if l.named[field] {
			count = l.maxNamed[field]
		}
		l.repeated[field] = count > 1
	}
}

func (l *layout) descriptor(typ string) tree.Descriptor {
	d := tree.Descriptor{
		Name:       typ,
		Attributes: PositionFields,
		Fields:     append([]string(nil), l.fields...),
	}
	if l.children {
		d.Fields = append(d.Fields, ChildrenField)
	}
	if l.text {
		d.Fields = append(d.Fields, TextField)
	}
	return d
}

type frame struct {
	node     *ts.Node
	field    string
	named    map[string]int
	anon     map[string]int
	hasNamed bool
	values   map[string][]tree.Value
	children []tree.Value
}

// walk visits every node below root in document order, the way a tree
// cursor does: enter on the way down, leave on the way back up.
func walk(root *ts.Node, enter func(n *ts.Node, field string), leave func(n *ts.Node)) {
	cursor := ts.NewTreeCursor(root)
	defer cursor.Close()

	didVisitChildren := false
	for {
		node := cursor.CurrentNode()
		if didVisitChildren {
			leave(node)
			if cursor.GoToNextSibling() {
				didVisitChildren = false
			} else if cursor.GoToParent() {
				didVisitChildren = true
			} else {
				break
			}
		} else {
			enter(node, cursor.CurrentFieldName())
			if cursor.GoToFirstChild() {
				didVisitChildren = false
			} else {
				didVisitChildren = true
			}
		}
	}
}

func collect(root *ts.Node) (map[string]*layout, []string) {
	layouts := make(map[string]*layout)
	var order []string
	layoutOf := func(typ string) *layout {
		l, ok := layouts[typ]
		if !ok {
			l = newLayout()
			layouts[typ] = l
			order = append(order, typ)
		}
		return l
	}

	var stack []*frame
	enter := func(n *ts.Node, field string) {
		if len(stack) > 0 {
			if parent := stack[len(stack)-1]; parent.node.IsNamed() {
				pl := layoutOf(parent.node.Type())
				switch {
				case field != "":
					if !pl.seen[field] {
						pl.seen[field] = true
						pl.fields = append(pl.fields, field)
					}
					if n.IsNamed() {
						parent.named[field]++
						parent.hasNamed = true
						pl.named[field] = true
					} else {
						parent.anon[field]++
					}
				case n.IsNamed():
					parent.hasNamed = true
					pl.children = true
				}
			}
		}
		if n.IsNamed() {
			layoutOf(n.Type())
		}
		stack = append(stack, &frame{node: n, field: field, named: make(map[string]int), anon: make(map[string]int)})
	}
	leave := func(n *ts.Node) {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !n.IsNamed() {
			return
		}
		l := layouts[n.Type()]
		for field, count := range f.named {
			l.maxNamed[field] = max(l.maxNamed[field], count)
		}
		for field, count := range f.anon {
			l.maxAnon[field] = max(l.maxAnon[field], count)
		}
		if !f.hasNamed {
			l.text = true
		}
	}
	walk(root, enter, leave)
	for _, l := range layouts {
		l.finish()
	}
	return layouts, order
}

func build(s *tree.Schema, layouts map[string]*layout, root *ts.Node, src []byte) (*tree.Node, error) {
	var (
		stack  []*frame
		result *tree.Node
		err    error
	)
	enter := func(n *ts.Node, field string) {
		if len(stack) > 0 && n.IsNamed() {
			stack[len(stack)-1].hasNamed = true
		}
		stack = append(stack, &frame{node: n, field: field, values: make(map[string][]tree.Value)})
	}
	leave := func(n *ts.Node) {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var parent *frame
		if len(stack) > 0 && stack[len(stack)-1].node.IsNamed() {
			parent = stack[len(stack)-1]
		}

		if !n.IsNamed() {
			if parent != nil && f.field != "" && !layouts[parent.node.Type()].named[f.field] {
				parent.values[f.field] = append(parent.values[f.field], tree.String(n.Content(src)))
			}
			return
		}

		node, nerr := newNode(s, layouts[n.Type()], f, src)
		if nerr != nil {
			if err == nil {
				err = nerr
			}
			return
		}
		v := tree.NodeValue(node)
		switch {
		case parent == nil:
			result = node
		case f.field != "":
			parent.values[f.field] = append(parent.values[f.field], v)
		default:
			parent.children = append(parent.children, v)
		}
	}
	walk(root, enter, leave)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%s: root node %s is anonymous", s.Name(), root.Type())
	}
	return result, nil
}

func newNode(s *tree.Schema, l *layout, f *frame, src []byte) (*tree.Node, error) {
	fields := make(tree.Fields, len(PositionFields)+len(l.fields)+2)
	start, end := f.node.StartPoint(), f.node.EndPoint()
	for i, p := range []uint32{start.Row, start.Column, end.Row, end.Column} {
		v, err := safecast.Conv[int64](p)
		if err != nil {
			return nil, err
		}
		if i%2 == 0 {
			v++
		}
		fields[PositionFields[i]] = tree.Int(v)
	}

	for _, name := range l.fields {
		vals := f.values[name]
		switch {
		case l.repeated[name]:
			fields[name] = tree.Seq(vals...)
		case len(vals) == 0:
			fields[name] = tree.None()
		default:
			fields[name] = vals[0]
		}
	}
	if l.children {
		fields[ChildrenField] = tree.Seq(f.children...)
	}
	if l.text {
		text := tree.None()
		if !f.hasNamed {
			text = tree.String(f.node.Content(src))
		}
		fields[TextField] = text
	}
	return s.New(f.node.Type(), fields)
}
