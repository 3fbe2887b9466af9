package pyast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/skrider/astpretty/pkg/tree"
)

var binOps = map[string]string{
	"+":  "Add",
	"-":  "Sub",
	"*":  "Mult",
	"@":  "MatMult",
	"/":  "Div",
	"%":  "Mod",
	"**": "Pow",
	"<<": "LShift",
	">>": "RShift",
	"|":  "BitOr",
	"^":  "BitXor",
	"&":  "BitAnd",
	"//": "FloorDiv",
}

var unaryOps = map[string]string{
	"+":   "UAdd",
	"-":   "USub",
	"~":   "Invert",
	"not": "Not",
}

var cmpOps = map[string]string{
	"==":     "Eq",
	"!=":     "NotEq",
	"<>":     "NotEq",
	"<":      "Lt",
	"<=":     "LtE",
	">":      "Gt",
	">=":     "GtE",
	"is":     "Is",
	"is not": "IsNot",
	"in":     "In",
	"not in": "NotIn",
}

func (l *lowerer) op(table map[string]string, n *sitter.Node, text string) tree.Value {
	typ, ok := table[text]
	if !ok {
		return l.fail(n, ErrUnsupported, "operator "+text)
	}
	return l.bare(typ, nil)
}

func (l *lowerer) binOp(n *sitter.Node, text string) tree.Value {
	return l.op(binOps, n, text)
}

func (l *lowerer) expr(n *sitter.Node) tree.Value {
	if n == nil {
		return tree.None()
	}
	sp := spanOf(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return l.name(n, "Load")
	case "integer", "float":
		v, err := parseNumber(l.text(n))
		if err != nil {
			return l.fail(n, err, l.text(n))
		}
		return l.constant(sp, v, tree.None())
	case "string", "concatenated_string":
		return l.str(n)
	case "true":
		return l.constant(sp, tree.Bool(true), tree.None())
	case "false":
		return l.constant(sp, tree.Bool(false), tree.None())
	case "none":
		return l.constant(sp, tree.None(), tree.None())
	case "ellipsis":
		return l.constant(sp, tree.Sym("Ellipsis"), tree.None())
	case "parenthesized_expression":
		ns := named(n)
		if len(ns) != 1 {
			return l.unsupported(n)
		}
		return l.expr(ns[0])
	case "list":
		return l.build("List", sp, tree.Fields{"elts": l.elts(n), "ctx": l.bare("Load", nil)})
	case "tuple", "expression_list":
		return l.build("Tuple", sp, tree.Fields{"elts": l.elts(n), "ctx": l.bare("Load", nil)})
	case "set":
		return l.build("Set", sp, tree.Fields{"elts": l.elts(n)})
	case "dictionary":
		return l.dict(n)
	case "list_splat":
		return l.build("Starred", sp, tree.Fields{"value": l.expr(named(n)[0]), "ctx": l.bare("Load", nil)})
	case "call":
		return l.call(n)
	case "attribute":
		return l.attribute(n, "Load")
	case "subscript":
		return l.subscript(n, "Load")
	case "type":
		ns := named(n)
		if len(ns) != 1 {
			return l.unsupported(n)
		}
		return l.expr(ns[0])
	case "binary_operator":
		if l.isBitwise(n) {
			return l.bitwise(n)
		}
		return l.build("BinOp", sp, tree.Fields{
			"left":  l.expr(n.ChildByFieldName("left")),
			"op":    l.binOp(n, l.text(n.ChildByFieldName("operator"))),
			"right": l.expr(n.ChildByFieldName("right")),
		})
	case "unary_operator":
		return l.build("UnaryOp", sp, tree.Fields{
			"op":      l.op(unaryOps, n, l.text(n.ChildByFieldName("operator"))),
			"operand": l.expr(n.ChildByFieldName("argument")),
		})
	case "not_operator":
		return l.build("UnaryOp", sp, tree.Fields{
			"op":      l.bare("Not", nil),
			"operand": l.expr(n.ChildByFieldName("argument")),
		})
	case "boolean_operator":
		return l.boolOp(n)
	case "comparison_operator":
		return l.compare(n)
	case "conditional_expression":
		ns := named(n)
		if len(ns) != 3 {
			return l.unsupported(n)
		}
		return l.build("IfExp", sp, tree.Fields{
			"test":   l.expr(ns[1]),
			"body":   l.expr(ns[0]),
			"orelse": l.expr(ns[2]),
		})
	case "lambda":
		return l.build("Lambda", sp, tree.Fields{
			"args": l.arguments(n.ChildByFieldName("parameters")),
			"body": l.expr(n.ChildByFieldName("body")),
		})
	case "await":
		return l.build("Await", sp, tree.Fields{"value": l.expr(named(n)[0])})
	case "named_expression":
		return l.build("NamedExpr", sp, tree.Fields{
			"target": l.name(n.ChildByFieldName("name"), "Store"),
			"value":  l.expr(n.ChildByFieldName("value")),
		})
	case "yield":
		value := tree.None()
		if ns := named(n); len(ns) > 0 {
			value = l.expr(ns[0])
		}
		if hasToken(n, "from") {
			return l.build("YieldFrom", sp, tree.Fields{"value": value})
		}
		return l.build("Yield", sp, tree.Fields{"value": value})
	case "list_comprehension":
		return l.comprehension(n, "ListComp")
	case "set_comprehension":
		return l.comprehension(n, "SetComp")
	case "generator_expression":
		return l.comprehension(n, "GeneratorExp")
	case "dictionary_comprehension":
		return l.comprehension(n, "DictComp")
	default:
		return l.unsupported(n)
	}
}

func (l *lowerer) isBitwise(n *sitter.Node) bool {
	if n.Type() != "binary_operator" {
		return false
	}
	op := l.text(n.ChildByFieldName("operator"))
	return op == "&" || op == "^"
}

// operand is a lowered operand together with the source it spans.
type operand struct {
	value tree.Value
	sp    span
}

// bitwise lowers an unparenthesized chain of & and ^ operators with &
// binding tighter than ^, both left-associative. The grammar nests the two
// the other way round, so the chain is flattened and rebuilt.
func (l *lowerer) bitwise(n *sitter.Node) tree.Value {
	var (
		operands []*sitter.Node
		ops      []*sitter.Node
		flatten  func(*sitter.Node)
	)
	flatten = func(n *sitter.Node) {
		if !l.isBitwise(n) {
			operands = append(operands, n)
			return
		}
		flatten(n.ChildByFieldName("left"))
		ops = append(ops, n.ChildByFieldName("operator"))
		flatten(n.ChildByFieldName("right"))
	}
	flatten(n)

	join := func(left, right operand, op *sitter.Node) operand {
		sp := span{start: left.sp.start, end: right.sp.end}
		return operand{
			value: l.build("BinOp", sp, tree.Fields{
				"left":  left.value,
				"op":    l.binOp(op, l.text(op)),
				"right": right.value,
			}),
			sp: sp,
		}
	}
	leaf := func(n *sitter.Node) operand {
		return operand{value: l.expr(n), sp: spanOf(n)}
	}

	var (
		result  operand
		pending *sitter.Node
	)
	group := leaf(operands[0])
	for i, op := range ops {
		next := leaf(operands[i+1])
		if l.text(op) == "&" {
			group = join(group, next, op)
			continue
		}
		if pending == nil {
			result = group
		} else {
			result = join(result, group, pending)
		}
		pending = op
		group = next
	}
	if pending == nil {
		return group.value
	}
	return join(result, group, pending).value
}

func (l *lowerer) name(n *sitter.Node, ctx string) tree.Value {
	return l.build("Name", spanOf(n), tree.Fields{
		"id":  tree.String(l.text(n)),
		"ctx": l.bare(ctx, nil),
	})
}

func (l *lowerer) constant(sp span, v, kind tree.Value) tree.Value {
	return l.build("Constant", sp, tree.Fields{"value": v, "kind": kind})
}

func (l *lowerer) elts(n *sitter.Node) tree.Value {
	ns := named(n)
	elts := make([]tree.Value, len(ns))
	for i, e := range ns {
		elts[i] = l.expr(e)
	}
	return tree.Seq(elts...)
}

// dict keeps keys and values aligned: a **mapping entry has a None key.
func (l *lowerer) dict(n *sitter.Node) tree.Value {
	var keys, values []tree.Value
	for _, e := range named(n) {
		switch e.Type() {
		case "pair":
			keys = append(keys, l.expr(e.ChildByFieldName("key")))
			values = append(values, l.expr(e.ChildByFieldName("value")))
		case "dictionary_splat":
			keys = append(keys, tree.None())
			values = append(values, l.expr(named(e)[0]))
		default:
			return l.unsupported(e)
		}
	}
	return l.build("Dict", spanOf(n), tree.Fields{
		"keys":   tree.Seq(keys...),
		"values": tree.Seq(values...),
	})
}

func (l *lowerer) call(n *sitter.Node) tree.Value {
	args, keywords := []tree.Value{}, []tree.Value{}
	if a := n.ChildByFieldName("arguments"); a != nil {
		if a.Type() == "generator_expression" {
			args = append(args, l.expr(a))
		} else {
			args, keywords = l.callArgs(a)
		}
	}
	return l.build("Call", spanOf(n), tree.Fields{
		"func":     l.expr(n.ChildByFieldName("function")),
		"args":     tree.Seq(args...),
		"keywords": tree.Seq(keywords...),
	})
}

func (l *lowerer) callArgs(argList *sitter.Node) (args, keywords []tree.Value) {
	args, keywords = []tree.Value{}, []tree.Value{}
	for _, a := range named(argList) {
		switch a.Type() {
		case "keyword_argument":
			keywords = append(keywords, l.build("keyword", spanOf(a), tree.Fields{
				"arg":   tree.String(l.text(a.ChildByFieldName("name"))),
				"value": l.expr(a.ChildByFieldName("value")),
			}))
		case "dictionary_splat":
			keywords = append(keywords, l.build("keyword", spanOf(a), tree.Fields{
				"arg":   tree.None(),
				"value": l.expr(named(a)[0]),
			}))
		default:
			args = append(args, l.expr(a))
		}
	}
	return args, keywords
}

func (l *lowerer) attribute(n *sitter.Node, ctx string) tree.Value {
	return l.build("Attribute", spanOf(n), tree.Fields{
		"value": l.expr(n.ChildByFieldName("object")),
		"attr":  tree.String(l.text(n.ChildByFieldName("attribute"))),
		"ctx":   l.bare(ctx, nil),
	})
}

func (l *lowerer) subscript(n *sitter.Node, ctx string) tree.Value {
	subs := fieldNodes(n, "subscript")
	var slice tree.Value
	switch len(subs) {
	case 0:
		return l.unsupported(n)
	case 1:
		slice = l.sliceExpr(subs[0])
	default:
		elts := make([]tree.Value, len(subs))
		for i, s := range subs {
			elts[i] = l.sliceExpr(s)
		}
		slice = l.build("Tuple", spanFrom(subs[0], subs[len(subs)-1]), tree.Fields{
			"elts": tree.Seq(elts...),
			"ctx":  l.bare("Load", nil),
		})
	}
	return l.build("Subscript", spanOf(n), tree.Fields{
		"value": l.expr(n.ChildByFieldName("value")),
		"slice": slice,
		"ctx":   l.bare(ctx, nil),
	})
}

// sliceExpr assigns the expressions of a:b:c to lower, upper and step by
// counting the colons in front of them.
func (l *lowerer) sliceExpr(n *sitter.Node) tree.Value {
	if n.Type() != "slice" {
		return l.expr(n)
	}
	parts := [3]tree.Value{tree.None(), tree.None(), tree.None()}
	colons := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch {
		case !c.IsNamed() && c.Type() == ":":
			colons++
		case c.IsNamed() && c.Type() != "comment" && colons < len(parts):
			parts[colons] = l.expr(c)
		}
	}
	return l.build("Slice", spanOf(n), tree.Fields{
		"lower": parts[0],
		"upper": parts[1],
		"step":  parts[2],
	})
}

// boolOp flattens a chain of the same operator into one BoolOp, the way
// CPython does for a and b and c.
func (l *lowerer) boolOp(n *sitter.Node) tree.Value {
	opText := l.text(n.ChildByFieldName("operator"))
	var operands []*sitter.Node
	cur := n
	for cur.Type() == "boolean_operator" && l.text(cur.ChildByFieldName("operator")) == opText {
		operands = append([]*sitter.Node{cur.ChildByFieldName("right")}, operands...)
		cur = cur.ChildByFieldName("left")
	}
	operands = append([]*sitter.Node{cur}, operands...)

	op := "And"
	if opText == "or" {
		op = "Or"
	}
	values := make([]tree.Value, len(operands))
	for i, o := range operands {
		values[i] = l.expr(o)
	}
	return l.build("BoolOp", spanOf(n), tree.Fields{
		"op":     l.bare(op, nil),
		"values": tree.Seq(values...),
	})
}

func (l *lowerer) compare(n *sitter.Node) tree.Value {
	var operands []*sitter.Node
	var ops []string
	afterOperand := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "comment" {
			continue
		}
		if c.IsNamed() {
			operands = append(operands, c)
			afterOperand = true
			continue
		}
		t := c.Type()
		if k := len(ops); k > 0 && !afterOperand && (ops[k-1] == "is" && t == "not" || ops[k-1] == "not" && t == "in") {
			ops[k-1] += " " + t
			continue
		}
		ops = append(ops, t)
		afterOperand = false
	}
	if len(operands) < 2 || len(ops) != len(operands)-1 {
		return l.unsupported(n)
	}

	opValues := make([]tree.Value, len(ops))
	for i, o := range ops {
		opValues[i] = l.op(cmpOps, n, o)
	}
	comparators := make([]tree.Value, 0, len(operands)-1)
	for _, o := range operands[1:] {
		comparators = append(comparators, l.expr(o))
	}
	return l.build("Compare", spanOf(n), tree.Fields{
		"left":        l.expr(operands[0]),
		"ops":         tree.Seq(opValues...),
		"comparators": tree.Seq(comparators...),
	})
}

type generator struct {
	target, iter tree.Value
	ifs          []tree.Value
	async        bool
}

func (l *lowerer) comprehension(n *sitter.Node, typ string) tree.Value {
	var gens []*generator
	for _, c := range named(n) {
		switch c.Type() {
		case "for_in_clause":
			gens = append(gens, &generator{
				target: l.target(c.ChildByFieldName("left"), "Store"),
				iter:   l.exprs(c, fieldNodes(c, "right")),
				async:  hasToken(c, "async"),
			})
		case "if_clause":
			if len(gens) == 0 {
				return l.unsupported(c)
			}
			g := gens[len(gens)-1]
			g.ifs = append(g.ifs, l.expr(named(c)[0]))
		}
	}

	generators := make([]tree.Value, len(gens))
	for i, g := range gens {
		isAsync := int64(0)
		if g.async {
			isAsync = 1
		}
		generators[i] = l.bare("comprehension", tree.Fields{
			"target":   g.target,
			"iter":     g.iter,
			"ifs":      tree.Seq(g.ifs...),
			"is_async": tree.Int(isAsync),
		})
	}

	body := n.ChildByFieldName("body")
	if typ == "DictComp" {
		if body == nil || body.Type() != "pair" {
			return l.unsupported(n)
		}
		return l.build(typ, spanOf(n), tree.Fields{
			"key":        l.expr(body.ChildByFieldName("key")),
			"value":      l.expr(body.ChildByFieldName("value")),
			"generators": tree.Seq(generators...),
		})
	}
	return l.build(typ, spanOf(n), tree.Fields{
		"elt":        l.expr(body),
		"generators": tree.Seq(generators...),
	})
}

// target lowers an assignment, for, del or with target with ctx applied to
// the outermost names, tuples, lists and starred elements.
func (l *lowerer) target(n *sitter.Node, ctx string) tree.Value {
	if n == nil {
		return tree.None()
	}
	sp := spanOf(n)
	switch n.Type() {
	case "identifier", "keyword_identifier":
		return l.name(n, ctx)
	case "attribute":
		return l.attribute(n, ctx)
	case "subscript":
		return l.subscript(n, ctx)
	case "pattern_list", "expression_list", "tuple_pattern", "tuple":
		// (a) = b parses as a tuple without a comma; it is a plain name.
		if ns := named(n); len(ns) == 1 && !hasToken(n, ",") {
			return l.target(ns[0], ctx)
		}
		return l.build("Tuple", sp, tree.Fields{"elts": l.targets(n, ctx), "ctx": l.bare(ctx, nil)})
	case "list_pattern", "list":
		return l.build("List", sp, tree.Fields{"elts": l.targets(n, ctx), "ctx": l.bare(ctx, nil)})
	case "list_splat_pattern", "list_splat":
		return l.build("Starred", sp, tree.Fields{"value": l.target(named(n)[0], ctx), "ctx": l.bare(ctx, nil)})
	case "parenthesized_expression":
		ns := named(n)
		if len(ns) != 1 {
			return l.unsupported(n)
		}
		return l.target(ns[0], ctx)
	default:
		return l.fail(n, ErrUnsupported, "cannot assign to "+n.Type())
	}
}

func (l *lowerer) targets(n *sitter.Node, ctx string) tree.Value {
	ns := named(n)
	out := make([]tree.Value, len(ns))
	for i, e := range ns {
		out[i] = l.target(e, ctx)
	}
	return tree.Seq(out...)
}
