package model

import (
	"fmt"
	"unicode/utf8"
)

// Node represents a node in the tree that makes up an editor document. So a
// document is an instance of Node, with children that are also instances of
// Node.
//
// Nodes are persistent data structures. Instead of changing them, you create
// new ones with the content you want. Old ones keep pointing at the old
// document shape.
//
// Do not directly mutate the properties of a Node object.
type Node struct {
	// The type of node that this is.
	Type *NodeType
	// An object mapping attribute names to values. The kind of attributes
	// allowed and required are determined by the node type.
	Attrs map[string]interface{}
	// A container holding the node's children.
	Content *Fragment
	// For text nodes, this contains the node's text content.
	Text *string
	// The marks (things like whether it is emphasized or part of a link)
	// applied to this node.
	Marks []*Mark
}

// NewNode is the constructor for non-text nodes.
func NewNode(typ *NodeType, attrs map[string]interface{}, content *Fragment, marks []*Mark) *Node {
	if content == nil {
		content = EmptyFragment
	}
	return &Node{Type: typ, Attrs: attrs, Content: content, Marks: marks}
}

// NewTextNode is the constructor for text nodes.
func NewTextNode(typ *NodeType, attrs map[string]interface{}, text string, marks []*Mark) *Node {
	return &Node{Type: typ, Attrs: attrs, Text: &text, Content: EmptyFragment, Marks: marks}
}

// NodeSize is the size of this node. For text nodes, this is the amount of
// characters. For other leaf nodes, it is one. For non-leaf nodes, it is the
// size of the content plus two (the start and end token).
func (n *Node) NodeSize() int {
	if n.IsText() {
		return utf8.RuneCountInString(*n.Text)
	}
	if n.IsLeaf() {
		return 1
	}
	return 2 + n.Content.Size
}

// ChildCount is the number of children that the node has.
func (n *Node) ChildCount() int {
	return n.Content.ChildCount()
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (n *Node) Child(index int) (*Node, error) {
	return n.Content.Child(index)
}

// MaybeChild gets the child node at the given index, if it exists.
func (n *Node) MaybeChild(index int) *Node {
	return n.Content.MaybeChild(index)
}

// ForEach calls fn for every child node.
func (n *Node) ForEach(fn func(node *Node, offset, index int)) {
	n.Content.ForEach(fn)
}

// Descendants calls fn for every descendant node, depth first. When fn
// returns false for a given node, that node's children will not be visited.
func (n *Node) Descendants(fn func(node, parent *Node, index int) bool) {
	for i, child := range n.Content.Content {
		if fn(child, n, i) {
			child.Descendants(fn)
		}
	}
}

// TextContent concatenates all the text nodes found in this node and its
// children.
func (n *Node) TextContent() string {
	if n.IsText() {
		return *n.Text
	}
	return n.Content.TextContent()
}

// Eq tests whether two nodes represent the same piece of document.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil || !n.SameMarkup(other) {
		return false
	}
	if n.IsText() || other.IsText() {
		return n.IsText() && other.IsText() && *n.Text == *other.Text
	}
	return n.Content.Eq(other.Content)
}

// SameMarkup compares the markup (type, attributes, and marks) of this node to
// those of another. Returns true if both have the same markup.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.Type, other.Attrs, other.Marks)
}

// HasMarkup checks whether this node's markup correspond to the given type,
// attributes, and marks.
func (n *Node) HasMarkup(typ *NodeType, attrs map[string]interface{}, marks []*Mark) bool {
	if n.Type != typ {
		return false
	}
	if attrs == nil {
		attrs = typ.DefaultAttrs
	}
	if !attrsEqual(n.Attrs, attrs) {
		return false
	}
	return SameMarkSet(n.Marks, marks)
}

// Copy creates a new node with the same markup as this node, containing the
// given content (or empty, if no content is given).
func (n *Node) Copy(content ...*Fragment) *Node {
	c := EmptyFragment
	if len(content) > 0 {
		c = content[0]
	}
	return NewNode(n.Type, n.Attrs, c, n.Marks)
}

// Mark creates a copy of this node, with the given set of marks instead of
// the node's own marks.
func (n *Node) Mark(marks []*Mark) *Node {
	if SameMarkSet(n.Marks, marks) {
		return n
	}
	if n.IsText() {
		return NewTextNode(n.Type, n.Attrs, *n.Text, marks)
	}
	return NewNode(n.Type, n.Attrs, n.Content, marks)
}

// WithText creates a copy of this text node with different text.
func (n *Node) WithText(text string) *Node {
	if text == *n.Text {
		return n
	}
	return NewTextNode(n.Type, n.Attrs, text, n.Marks)
}

// IsBlock is true when this is a block (non-inline node).
func (n *Node) IsBlock() bool {
	return n.Type.IsBlock()
}

// IsInline is true when this is an inline node (a text node or a node that
// can appear among text).
func (n *Node) IsInline() bool {
	return n.Type.IsInline()
}

// IsTextblock is true when this is a textblock node, a block node with inline
// content.
func (n *Node) IsTextblock() bool {
	return n.Type.IsTextblock()
}

// IsLeaf is true when this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Type.IsLeaf()
}

// IsText is true when this is a text node.
func (n *Node) IsText() bool {
	return n.Text != nil
}

// Check that this node and its children conform to the schema's content
// constraints. Returns an error describing the first problem found.
func (n *Node) Check() error {
	if n.IsText() && *n.Text == "" {
		return fmt.Errorf("Empty text nodes are not allowed")
	}
	if !n.Type.ValidContent(n.Content) {
		return fmt.Errorf("Invalid content for node %s: %s", n.Type.Name, n.Content)
	}
	set := NoMarks
	for _, mark := range n.Marks {
		set = mark.AddToSet(set)
	}
	if !SameMarkSet(set, n.Marks) {
		return fmt.Errorf("Invalid collection of marks for node %s: %v", n.Type.Name, n.Marks)
	}
	for _, child := range n.Content.Content {
		if err := child.Check(); err != nil {
			return err
		}
	}
	return nil
}

// String returns a string representation of this node for debugging
// purposes.
func (n *Node) String() string {
	if n.Type.Spec.ToDebugString != nil {
		return n.Type.Spec.ToDebugString(n)
	}
	name := n.Type.Name
	if n.IsText() {
		name = fmt.Sprintf("%q", *n.Text)
	} else if n.Content.ChildCount() > 0 {
		name += fmt.Sprintf("(%s)", n.Content.toStringInner())
	}
	return wrapMarks(n.Marks, name)
}

func wrapMarks(marks []*Mark, str string) string {
	for i := len(marks) - 1; i >= 0; i-- {
		str = fmt.Sprintf("%s(%s)", marks[i].Type.Name, str)
	}
	return str
}
