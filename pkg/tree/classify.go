package tree

// IsContextMarker reports whether v holds a node whose type is declared as
// a context marker.
func IsContextMarker(v Value) bool {
	return v.kind == KindMarker
}

// IsStructural reports whether v holds a node that counts as nesting.
func IsStructural(v Value) bool {
	return v.kind == KindNode
}

// IsLeaf reports whether no content field of n, and no element of a
// sequence content field, is a structural node. The test looks one level
// down only.
func IsLeaf(n *Node) bool {
	for _, v := range n.values[len(n.desc.Attributes):] {
		switch v.kind {
		case KindNode:
			return false
		case KindSequence:
			for _, el := range v.seq {
				if el.kind == KindNode {
					return false
				}
			}
		}
	}
	return true
}

// FieldNames returns the attribute names followed by the content field
// names when showOffsets is set, the content field names otherwise.
func FieldNames(n *Node, showOffsets bool) []string {
	if showOffsets {
		return n.desc.all
	}
	return n.desc.Fields
}
