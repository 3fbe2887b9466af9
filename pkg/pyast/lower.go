package pyast

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/skrider/astpretty/pkg/tree"
)

type span struct {
	start, end sitter.Point
}

func spanOf(n *sitter.Node) span {
	return span{start: n.StartPoint(), end: n.EndPoint()}
}

func spanFrom(first, last *sitter.Node) span {
	return span{start: first.StartPoint(), end: last.EndPoint()}
}

type child struct {
	node  *sitter.Node
	field string
}

// lowerer turns a tree-sitter python tree into ast nodes. The first
// failure is kept in err; lowering carries on with None values so callers
// only check once.
type lowerer struct {
	filename string
	src      []byte
	err      error
}

func (l *lowerer) fail(n *sitter.Node, err error, detail string) tree.Value {
	if l.err == nil {
		p := n.StartPoint()
		l.err = fmt.Errorf("%s:%d:%d: %w: %s", l.filename, p.Row+1, p.Column+1, err, detail)
	}
	return tree.None()
}

func (l *lowerer) unsupported(n *sitter.Node) tree.Value {
	return l.fail(n, ErrUnsupported, n.Type())
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

// build creates a positioned node.
func (l *lowerer) build(typ string, sp span, fields tree.Fields) tree.Value {
	fields["lineno"] = tree.Int(int64(sp.start.Row) + 1)
	fields["col_offset"] = tree.Int(int64(sp.start.Column))
	fields["end_lineno"] = tree.Int(int64(sp.end.Row) + 1)
	fields["end_col_offset"] = tree.Int(int64(sp.end.Column))
	return tree.NodeValue(schema.MustNew(typ, fields))
}

// bare creates a node type without position attributes.
func (l *lowerer) bare(typ string, fields tree.Fields) tree.Value {
	if fields == nil {
		fields = tree.Fields{}
	}
	return tree.NodeValue(schema.MustNew(typ, fields))
}

// children lists every child of n with its grammar field name.
func children(n *sitter.Node) []child {
	c := sitter.NewTreeCursor(n)
	defer c.Close()
	if !c.GoToFirstChild() {
		return nil
	}
	var out []child
	for {
		out = append(out, child{node: c.CurrentNode(), field: c.CurrentFieldName()})
		if !c.GoToNextSibling() {
			break
		}
	}
	return out
}

func fieldNodes(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range children(n) {
		if c.field == field {
			out = append(out, c.node)
		}
	}
	return out
}

// named returns the named children of n, comments excluded.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func (l *lowerer) module(root *sitter.Node) *tree.Node {
	return schema.MustNew("Module", tree.Fields{
		"body":         tree.Seq(l.stmts(named(root))...),
		"type_ignores": tree.Seq(),
	})
}

func (l *lowerer) stmts(ns []*sitter.Node) []tree.Value {
	out := make([]tree.Value, 0, len(ns))
	for _, n := range ns {
		out = append(out, l.stmt(n))
	}
	return out
}

func (l *lowerer) block(n *sitter.Node) tree.Value {
	if n == nil {
		return tree.Seq()
	}
	return tree.Seq(l.stmts(named(n))...)
}

func (l *lowerer) stmt(n *sitter.Node) tree.Value {
	switch n.Type() {
	case "expression_statement":
		return l.exprStmt(n)
	case "return_statement":
		value := tree.None()
		if ns := named(n); len(ns) > 0 {
			value = l.expr(ns[0])
		}
		return l.build("Return", spanOf(n), tree.Fields{"value": value})
	case "delete_statement":
		var targets []tree.Value
		for _, t := range named(n) {
			if t.Type() == "expression_list" {
				for _, e := range named(t) {
					targets = append(targets, l.target(e, "Del"))
				}
				continue
			}
			targets = append(targets, l.target(t, "Del"))
		}
		return l.build("Delete", spanOf(n), tree.Fields{"targets": tree.Seq(targets...)})
	case "pass_statement":
		return l.build("Pass", spanOf(n), tree.Fields{})
	case "break_statement":
		return l.build("Break", spanOf(n), tree.Fields{})
	case "continue_statement":
		return l.build("Continue", spanOf(n), tree.Fields{})
	case "if_statement":
		return l.ifStmt(n)
	case "while_statement":
		return l.build("While", spanOf(n), tree.Fields{
			"test":   l.expr(n.ChildByFieldName("condition")),
			"body":   l.block(n.ChildByFieldName("body")),
			"orelse": l.elseBlock(n.ChildByFieldName("alternative")),
		})
	case "for_statement":
		typ := "For"
		if hasToken(n, "async") {
			typ = "AsyncFor"
		}
		return l.build(typ, spanOf(n), tree.Fields{
			"target":       l.target(n.ChildByFieldName("left"), "Store"),
			"iter":         l.exprs(n, fieldNodes(n, "right")),
			"body":         l.block(n.ChildByFieldName("body")),
			"orelse":       l.elseBlock(n.ChildByFieldName("alternative")),
			"type_comment": tree.None(),
		})
	case "with_statement":
		return l.withStmt(n)
	case "try_statement":
		return l.tryStmt(n)
	case "function_definition":
		return l.funcDef(n, nil)
	case "class_definition":
		return l.classDef(n, nil)
	case "decorated_definition":
		return l.decorated(n)
	case "global_statement", "nonlocal_statement":
		typ := "Global"
		if n.Type() == "nonlocal_statement" {
			typ = "Nonlocal"
		}
		var names []tree.Value
		for _, id := range named(n) {
			names = append(names, tree.String(l.text(id)))
		}
		return l.build(typ, spanOf(n), tree.Fields{"names": tree.Seq(names...)})
	case "import_statement":
		return l.build("Import", spanOf(n), tree.Fields{"names": l.aliases(n)})
	case "import_from_statement":
		return l.importFrom(n)
	case "future_import_statement":
		return l.build("ImportFrom", spanOf(n), tree.Fields{
			"module": tree.String("__future__"),
			"names":  l.aliases(n),
			"level":  tree.Int(0),
		})
	case "raise_statement":
		exc, cause := tree.None(), tree.None()
		for _, c := range children(n) {
			if !c.node.IsNamed() || c.node.Type() == "comment" {
				continue
			}
			if c.field == "cause" {
				cause = l.expr(c.node)
			} else {
				exc = l.expr(c.node)
			}
		}
		return l.build("Raise", spanOf(n), tree.Fields{"exc": exc, "cause": cause})
	case "assert_statement":
		ns := named(n)
		msg := tree.None()
		if len(ns) > 1 {
			msg = l.expr(ns[1])
		}
		return l.build("Assert", spanOf(n), tree.Fields{"test": l.expr(ns[0]), "msg": msg})
	default:
		return l.unsupported(n)
	}
}

func (l *lowerer) exprStmt(n *sitter.Node) tree.Value {
	ns := named(n)
	if len(ns) == 1 {
		switch ns[0].Type() {
		case "assignment":
			return l.assign(n, ns[0])
		case "augmented_assignment":
			a := ns[0]
			return l.build("AugAssign", spanOf(n), tree.Fields{
				"target": l.target(a.ChildByFieldName("left"), "Store"),
				"op":     l.binOp(a.ChildByFieldName("operator"), strings.TrimSuffix(l.text(a.ChildByFieldName("operator")), "=")),
				"value":  l.expr(a.ChildByFieldName("right")),
			})
		}
	}
	return l.build("Expr", spanOf(n), tree.Fields{"value": l.exprs(n, ns)})
}

// exprs lowers one expression, or an unparenthesized tuple of several.
func (l *lowerer) exprs(parent *sitter.Node, ns []*sitter.Node) tree.Value {
	switch len(ns) {
	case 0:
		return l.fail(parent, ErrUnsupported, "empty expression")
	case 1:
		return l.expr(ns[0])
	}
	elts := make([]tree.Value, len(ns))
	for i, e := range ns {
		elts[i] = l.expr(e)
	}
	return l.build("Tuple", spanFrom(ns[0], ns[len(ns)-1]), tree.Fields{
		"elts": tree.Seq(elts...),
		"ctx":  l.bare("Load", nil),
	})
}

func (l *lowerer) assign(stmt, a *sitter.Node) tree.Value {
	if typ := a.ChildByFieldName("type"); typ != nil {
		left := a.ChildByFieldName("left")
		value := tree.None()
		if right := a.ChildByFieldName("right"); right != nil {
			value = l.expr(right)
		}
		simple := int64(0)
		if left.Type() == "identifier" {
			simple = 1
		}
		return l.build("AnnAssign", spanOf(stmt), tree.Fields{
			"target":     l.target(left, "Store"),
			"annotation": l.expr(typ),
			"value":      value,
			"simple":     tree.Int(simple),
		})
	}

	var targets []tree.Value
	cur := a
	for {
		targets = append(targets, l.target(cur.ChildByFieldName("left"), "Store"))
		right := cur.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" && right.ChildByFieldName("type") == nil {
			cur = right
			continue
		}
		return l.build("Assign", spanOf(stmt), tree.Fields{
			"targets":      tree.Seq(targets...),
			"value":        l.expr(right),
			"type_comment": tree.None(),
		})
	}
}

func (l *lowerer) ifStmt(n *sitter.Node) tree.Value {
	return l.build("If", spanOf(n), tree.Fields{
		"test":   l.expr(n.ChildByFieldName("condition")),
		"body":   l.block(n.ChildByFieldName("consequence")),
		"orelse": l.elifChain(fieldNodes(n, "alternative"), n.EndPoint()),
	})
}

// elifChain nests each elif clause as an If in the orelse of the one
// before it. Every nested If ends where the whole statement ends.
func (l *lowerer) elifChain(alts []*sitter.Node, end sitter.Point) tree.Value {
	if len(alts) == 0 {
		return tree.Seq()
	}
	a := alts[0]
	if a.Type() == "else_clause" {
		return l.block(a.ChildByFieldName("body"))
	}
	return tree.Seq(l.build("If", span{start: a.StartPoint(), end: end}, tree.Fields{
		"test":   l.expr(a.ChildByFieldName("condition")),
		"body":   l.block(a.ChildByFieldName("consequence")),
		"orelse": l.elifChain(alts[1:], end),
	}))
}

func (l *lowerer) elseBlock(n *sitter.Node) tree.Value {
	if n == nil {
		return tree.Seq()
	}
	return l.block(n.ChildByFieldName("body"))
}

func (l *lowerer) withStmt(n *sitter.Node) tree.Value {
	typ := "With"
	if hasToken(n, "async") {
		typ = "AsyncWith"
	}
	var items []tree.Value
	for _, c := range named(n) {
		if c.Type() != "with_clause" {
			continue
		}
		for _, item := range named(c) {
			items = append(items, l.withItem(item))
		}
	}
	return l.build(typ, spanOf(n), tree.Fields{
		"items":        tree.Seq(items...),
		"body":         l.block(n.ChildByFieldName("body")),
		"type_comment": tree.None(),
	})
}

func (l *lowerer) withItem(item *sitter.Node) tree.Value {
	value := item.ChildByFieldName("value")
	if value == nil {
		return l.unsupported(item)
	}
	vars := tree.None()
	if alias := item.ChildByFieldName("alias"); alias != nil {
		vars = l.target(alias, "Store")
	} else if value.Type() == "as_pattern" {
		ns := named(value)
		if len(ns) < 2 {
			return l.unsupported(value)
		}
		target := ns[len(ns)-1]
		if target.Type() == "as_pattern_target" {
			target = named(target)[0]
		}
		vars = l.target(target, "Store")
		value = ns[0]
	}
	return l.bare("withitem", tree.Fields{
		"context_expr":  l.expr(value),
		"optional_vars": vars,
	})
}

func (l *lowerer) tryStmt(n *sitter.Node) tree.Value {
	typ := "Try"
	var handlers []tree.Value
	orelse, final := tree.Seq(), tree.Seq()
	for _, c := range named(n) {
		switch c.Type() {
		case "except_clause", "except_group_clause":
			if c.Type() == "except_group_clause" {
				typ = "TryStar"
			}
			handlers = append(handlers, l.exceptHandler(c))
		case "else_clause":
			orelse = l.block(c.ChildByFieldName("body"))
		case "finally_clause":
			if ns := named(c); len(ns) > 0 {
				final = l.block(ns[len(ns)-1])
			}
		}
	}
	return l.build(typ, spanOf(n), tree.Fields{
		"body":      l.block(n.ChildByFieldName("body")),
		"handlers":  tree.Seq(handlers...),
		"orelse":    orelse,
		"finalbody": final,
	})
}

func (l *lowerer) exceptHandler(c *sitter.Node) tree.Value {
	typ, name := tree.None(), tree.None()
	var body *sitter.Node
	var exprs []*sitter.Node
	for _, x := range named(c) {
		if x.Type() == "block" {
			body = x
			continue
		}
		exprs = append(exprs, x)
	}
	if len(exprs) == 1 && exprs[0].Type() == "as_pattern" {
		ns := named(exprs[0])
		exprs = ns
		if len(ns) == 2 && ns[1].Type() == "as_pattern_target" {
			exprs = []*sitter.Node{ns[0], named(ns[1])[0]}
		}
	}
	if len(exprs) > 0 {
		typ = l.expr(exprs[0])
	}
	if len(exprs) > 1 {
		name = tree.String(l.text(exprs[1]))
	}
	return l.build("ExceptHandler", spanOf(c), tree.Fields{
		"type": typ,
		"name": name,
		"body": l.block(body),
	})
}

func (l *lowerer) decorated(n *sitter.Node) tree.Value {
	var decorators []tree.Value
	for _, c := range named(n) {
		if c.Type() == "decorator" {
			if ns := named(c); len(ns) > 0 {
				decorators = append(decorators, l.expr(ns[0]))
			}
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return l.unsupported(n)
	}
	switch def.Type() {
	case "function_definition":
		return l.funcDef(def, decorators)
	case "class_definition":
		return l.classDef(def, decorators)
	default:
		return l.unsupported(def)
	}
}

func (l *lowerer) funcDef(n *sitter.Node, decorators []tree.Value) tree.Value {
	typ := "FunctionDef"
	if hasToken(n, "async") {
		typ = "AsyncFunctionDef"
	}
	returns := tree.None()
	if r := n.ChildByFieldName("return_type"); r != nil {
		returns = l.expr(r)
	}
	return l.build(typ, spanOf(n), tree.Fields{
		"name":           tree.String(l.text(n.ChildByFieldName("name"))),
		"args":           l.arguments(n.ChildByFieldName("parameters")),
		"body":           l.block(n.ChildByFieldName("body")),
		"decorator_list": tree.Seq(decorators...),
		"returns":        returns,
		"type_comment":   tree.None(),
	})
}

func (l *lowerer) classDef(n *sitter.Node, decorators []tree.Value) tree.Value {
	bases, keywords := []tree.Value{}, []tree.Value{}
	if sup := n.ChildByFieldName("superclasses"); sup != nil {
		bases, keywords = l.callArgs(sup)
	}
	return l.build("ClassDef", spanOf(n), tree.Fields{
		"name":           tree.String(l.text(n.ChildByFieldName("name"))),
		"bases":          tree.Seq(bases...),
		"keywords":       tree.Seq(keywords...),
		"body":           l.block(n.ChildByFieldName("body")),
		"decorator_list": tree.Seq(decorators...),
	})
}

func (l *lowerer) dotted(n *sitter.Node) string {
	if n.Type() != "dotted_name" {
		return l.text(n)
	}
	parts := make([]string, 0, n.NamedChildCount())
	for _, id := range named(n) {
		parts = append(parts, l.text(id))
	}
	return strings.Join(parts, ".")
}

func (l *lowerer) aliases(n *sitter.Node) tree.Value {
	var out []tree.Value
	for _, c := range children(n) {
		if c.node.Type() == "wildcard_import" {
			out = append(out, l.build("alias", spanOf(c.node), tree.Fields{
				"name":   tree.String("*"),
				"asname": tree.None(),
			}))
			continue
		}
		if c.field != "name" {
			continue
		}
		name, asname := c.node, tree.None()
		if c.node.Type() == "aliased_import" {
			name = c.node.ChildByFieldName("name")
			asname = tree.String(l.text(c.node.ChildByFieldName("alias")))
		}
		out = append(out, l.build("alias", spanOf(c.node), tree.Fields{
			"name":   tree.String(l.dotted(name)),
			"asname": asname,
		}))
	}
	return tree.Seq(out...)
}

func (l *lowerer) importFrom(n *sitter.Node) tree.Value {
	module, level := tree.None(), int64(0)
	mod := n.ChildByFieldName("module_name")
	switch {
	case mod == nil:
	case mod.Type() == "relative_import":
		for _, c := range named(mod) {
			switch c.Type() {
			case "import_prefix":
				level = int64(strings.Count(l.text(c), "."))
			case "dotted_name":
				module = tree.String(l.dotted(c))
			}
		}
	default:
		module = tree.String(l.dotted(mod))
	}
	return l.build("ImportFrom", spanOf(n), tree.Fields{
		"module": module,
		"names":  l.aliases(n),
		"level":  tree.Int(level),
	})
}

// arguments lowers a parameters or lambda_parameters node.
func (l *lowerer) arguments(params *sitter.Node) tree.Value {
	var posonly, args, kwonly, kwDefaults, defaults []tree.Value
	vararg, kwarg := tree.None(), tree.None()
	kwOnly := false

	add := func(a tree.Value, def *sitter.Node) {
		switch {
		case kwOnly:
			kwonly = append(kwonly, a)
			if def != nil {
				kwDefaults = append(kwDefaults, l.expr(def))
			} else {
				kwDefaults = append(kwDefaults, tree.None())
			}
		default:
			args = append(args, a)
			if def != nil {
				defaults = append(defaults, l.expr(def))
			}
		}
	}

	for _, p := range named(params) {
		switch p.Type() {
		case "identifier":
			add(l.arg(p, nil, spanOf(p)), nil)
		case "default_parameter":
			name := p.ChildByFieldName("name")
			add(l.arg(name, nil, spanOf(name)), p.ChildByFieldName("value"))
		case "typed_parameter", "typed_default_parameter":
			typ := p.ChildByFieldName("type")
			name := p.ChildByFieldName("name")
			if name == nil {
				name = named(p)[0]
			}
			switch name.Type() {
			case "list_splat_pattern":
				id := named(name)[0]
				vararg = l.arg(id, typ, span{start: id.StartPoint(), end: typ.EndPoint()})
				kwOnly = true
			case "dictionary_splat_pattern":
				id := named(name)[0]
				kwarg = l.arg(id, typ, span{start: id.StartPoint(), end: typ.EndPoint()})
			default:
				add(l.arg(name, typ, span{start: name.StartPoint(), end: typ.EndPoint()}), p.ChildByFieldName("value"))
			}
		case "list_splat_pattern":
			id := named(p)[0]
			vararg = l.arg(id, nil, spanOf(id))
			kwOnly = true
		case "dictionary_splat_pattern":
			id := named(p)[0]
			kwarg = l.arg(id, nil, spanOf(id))
		case "keyword_separator":
			kwOnly = true
		case "positional_separator":
			posonly = append(posonly, args...)
			args = nil
		default:
			l.unsupported(p)
		}
	}

	return l.bare("arguments", tree.Fields{
		"posonlyargs": tree.Seq(posonly...),
		"args":        tree.Seq(args...),
		"vararg":      vararg,
		"kwonlyargs":  tree.Seq(kwonly...),
		"kw_defaults": tree.Seq(kwDefaults...),
		"kwarg":       kwarg,
		"defaults":    tree.Seq(defaults...),
	})
}

func (l *lowerer) arg(name, annotation *sitter.Node, sp span) tree.Value {
	ann := tree.None()
	if annotation != nil {
		ann = l.expr(annotation)
	}
	return l.build("arg", sp, tree.Fields{
		"arg":          tree.String(l.text(name)),
		"annotation":   ann,
		"type_comment": tree.None(),
	})
}
