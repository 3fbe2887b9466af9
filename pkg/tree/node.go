// Package tree is the data model shared by the formatter and the parser
// collaborators: typed nodes with named attribute and content fields,
// a closed set of value variants, and schemas of per-type descriptors.
package tree

import "fmt"

// Fields maps field names to values when building a node.
type Fields map[string]Value

// Node is one element of a parsed tree. Its values are stored in the
// descriptor's declaration order.
type Node struct {
	desc   *Descriptor
	values []Value
}

func (n *Node) Type() string             { return n.desc.Name }
func (n *Node) Descriptor() *Descriptor { return n.desc }
func (n *Node) Schema() *Schema         { return n.desc.schema }

// Field returns the value of a declared field. Asking for a field the type
// does not declare is a programming error and panics.
func (n *Node) Field(name string) Value {
	i, ok := n.desc.index[name]
	if !ok {
		panic(fmt.Sprintf("tree: %s has no field %q", n.desc.Name, name))
	}
	return n.values[i]
}

// Lookup is Field without the panic.
func (n *Node) Lookup(name string) (Value, bool) {
	i, ok := n.desc.index[name]
	if !ok {
		return Value{}, false
	}
	return n.values[i], true
}

// Walk calls fn for n and every node (structural or marker) below it,
// depth first, in field order.
func Walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, v := range n.values {
		walkValue(v, fn)
	}
}

func walkValue(v Value, fn func(*Node)) {
	switch v.kind {
	case KindNode, KindMarker:
		Walk(v.node, fn)
	case KindSequence:
		for _, el := range v.seq {
			walkValue(el, fn)
		}
	}
}

// TypeNames returns the distinct type names used in the tree rooted at n,
// in first-seen order.
func TypeNames(n *Node) []string {
	seen := make(map[string]bool)
	var names []string
	Walk(n, func(c *Node) {
		if !seen[c.Type()] {
			seen[c.Type()] = true
			names = append(names, c.Type())
		}
	})
	return names
}
