package tree

import (
	"fmt"
	"math/big"
)

// Kind is the variant of a Value. It is decided once, when the value is
// built, and never re-derived while formatting.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindMarker
	KindNode
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindMarker:
		return "marker"
	case KindNode:
		return "node"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Symbol is a primitive rendered bare, without quoting (Python's Ellipsis,
// a Go token name).
type Symbol string

// Value is a field value: a primitive, a node (structural or context
// marker) or an ordered sequence of values.
type Value struct {
	kind Kind
	prim any
	node *Node
	seq  []Value
}

func None() Value                { return Value{kind: KindPrimitive} }
func String(s string) Value      { return Value{kind: KindPrimitive, prim: s} }
func Bytes(b []byte) Value       { return Value{kind: KindPrimitive, prim: b} }
func Bool(b bool) Value          { return Value{kind: KindPrimitive, prim: b} }
func Int(i int64) Value          { return Value{kind: KindPrimitive, prim: i} }
func Float(f float64) Value      { return Value{kind: KindPrimitive, prim: f} }
func Complex(c complex128) Value { return Value{kind: KindPrimitive, prim: c} }
func Sym(s string) Value         { return Value{kind: KindPrimitive, prim: Symbol(s)} }

// BigInt holds integers that do not fit in an int64.
func BigInt(i *big.Int) Value {
	if i.IsInt64() {
		return Int(i.Int64())
	}
	return Value{kind: KindPrimitive, prim: new(big.Int).Set(i)}
}

// NodeValue wraps n. Nodes whose type is a context marker become
// KindMarker values; a nil node is None.
func NodeValue(n *Node) Value {
	if n == nil {
		return None()
	}
	if n.desc.Category == CategoryContext {
		return Value{kind: KindMarker, node: n}
	}
	return Value{kind: KindNode, node: n}
}

// Seq builds a sequence. A nil or empty argument list is an empty
// sequence, not None.
func Seq(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindSequence, seq: elems}
}

// Nodes is Seq over node values.
func Nodes(ns ...*Node) Value {
	elems := make([]Value, len(ns))
	for i, n := range ns {
		elems[i] = NodeValue(n)
	}
	return Seq(elems...)
}

func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v is the none primitive.
func (v Value) IsNone() bool { return v.kind == KindPrimitive && v.prim == nil }

// Primitive returns the payload of a primitive value: nil, string, []byte,
// bool, int64, *big.Int, float64, complex128 or Symbol.
func (v Value) Primitive() any { return v.prim }

// Node returns the node of a KindNode or KindMarker value, nil otherwise.
func (v Value) Node() *Node { return v.node }

// Elems returns the elements of a sequence.
func (v Value) Elems() []Value { return v.seq }

func (v Value) String() string {
	switch v.kind {
	case KindNode, KindMarker:
		return v.node.Type()
	case KindSequence:
		return fmt.Sprintf("[%d]", len(v.seq))
	default:
		return fmt.Sprintf("%v", v.prim)
	}
}
