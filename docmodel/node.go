// Package docmodel holds the editor-independent document tree.
package docmodel

import "reflect"

// Kind identifies the semantic nature of a node, e.g. "paragraph" or "emph".
type Kind string

// Kinds owned by the kernel rather than by a plugin.
const (
	KindDocument Kind = "document"
	KindFragment Kind = "fragment"
	KindText     Kind = "text"
)

// Node is the concrete type for all nodes in the document tree. Children
// order is significant.
type Node struct {
	Kind     Kind
	Payload  interface{}
	Children []Node
}

// NewDocument returns the root node holding the given blocks.
func NewDocument(blocks ...Node) Node {
	return Node{Kind: KindDocument, Children: blocks}
}

// NewFragment returns a transparent grouping of nodes. Fragments contribute
// no node of their own when converted to the editor tree.
func NewFragment(nodes ...Node) Node {
	return Node{Kind: KindFragment, Children: nodes}
}

// NewText returns a text leaf.
func NewText(text string) Node {
	return Node{Kind: KindText, Payload: text}
}

// NewNode returns a node of any kind.
func NewNode(kind Kind, payload interface{}, children ...Node) Node {
	return Node{Kind: kind, Payload: payload, Children: children}
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool {
	return n.Kind == "" && n.Payload == nil && len(n.Children) == 0
}

// Text returns the payload of a text node.
func (n Node) Text() (string, bool) {
	if n.Kind != KindText {
		return "", false
	}
	s, ok := n.Payload.(string)
	return s, ok
}

// Equal compares kind, payload and children recursively. A nil and an empty
// children list are equal.
func (n Node) Equal(other Node) bool {
	if n.Kind != other.Kind {
		return false
	}
	if !reflect.DeepEqual(n.Payload, other.Payload) {
		return false
	}
	if len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Walk calls fn for n and every descendant, depth first. Returning false
// skips the node's children.
func (n Node) Walk(fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
