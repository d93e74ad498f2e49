package model

import (
	"fmt"
	"strings"
)

// A fragment represents a node's collection of child nodes.
//
// Like nodes, fragments are persistent data structures, and you should not
// mutate them or their content. Rather, you create new instances whenever
// needed. The API tries to make this easy.
type Fragment struct {
	Content []*Node
	// The size of the fragment, which is the total of the size of its
	// content nodes.
	Size int
}

// NewFragment builds a fragment from a list of nodes.
func NewFragment(content []*Node) *Fragment {
	size := 0
	for _, child := range content {
		size += child.NodeSize()
	}
	return &Fragment{Content: content, Size: size}
}

// EmptyFragment is an empty fragment.
var EmptyFragment = &Fragment{Content: []*Node{}}

// FragmentFrom creates a fragment from something that can be interpreted as a
// set of nodes. For nil, it returns the empty fragment. For a fragment, the
// fragment itself. For a node or array of nodes, a fragment containing those
// nodes.
func FragmentFrom(nodes interface{}) (*Fragment, error) {
	switch nodes := nodes.(type) {
	case nil:
		return EmptyFragment, nil
	case *Fragment:
		if nodes == nil {
			return EmptyFragment, nil
		}
		return nodes, nil
	case *Node:
		return NewFragment([]*Node{nodes}), nil
	case []*Node:
		if len(nodes) == 0 {
			return EmptyFragment, nil
		}
		return NewFragment(nodes), nil
	}
	return nil, fmt.Errorf("Can not convert %v to a Fragment", nodes)
}

// ChildCount is the number of child nodes in this fragment.
func (f *Fragment) ChildCount() int {
	return len(f.Content)
}

// Child gets the child node at the given index. Returns an error when the
// index is out of range.
func (f *Fragment) Child(index int) (*Node, error) {
	if index < 0 || index >= len(f.Content) {
		return nil, fmt.Errorf("Index %d out of range for %s", index, f)
	}
	return f.Content[index], nil
}

// MaybeChild gets the child node at the given index, if it exists.
func (f *Fragment) MaybeChild(index int) *Node {
	if index < 0 || index >= len(f.Content) {
		return nil
	}
	return f.Content[index]
}

// FirstChild returns the first child of the fragment, or nil if it is empty.
func (f *Fragment) FirstChild() *Node {
	return f.MaybeChild(0)
}

// LastChild returns the last child of the fragment, or nil if it is empty.
func (f *Fragment) LastChild() *Node {
	return f.MaybeChild(len(f.Content) - 1)
}

// ForEach calls fn for every child node, passing the node, its offset into
// this parent node, and its index.
func (f *Fragment) ForEach(fn func(node *Node, offset, index int)) {
	pos := 0
	for i, child := range f.Content {
		fn(child, pos, i)
		pos += child.NodeSize()
	}
}

// Append creates a new fragment containing the combined content of this
// fragment and the other.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.Size == 0 && len(other.Content) == 0 {
		return f
	}
	if f.Size == 0 && len(f.Content) == 0 {
		return other
	}
	content := make([]*Node, 0, len(f.Content)+len(other.Content))
	content = append(content, f.Content...)
	content = append(content, other.Content...)
	return NewFragment(content)
}

// TextContent concatenates all the text nodes found in this fragment and its
// children.
func (f *Fragment) TextContent() string {
	var sb strings.Builder
	for _, child := range f.Content {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// Eq compares this fragment to another one.
func (f *Fragment) Eq(other *Fragment) bool {
	if len(f.Content) != len(other.Content) {
		return false
	}
	for i := range f.Content {
		if !f.Content[i].Eq(other.Content[i]) {
			return false
		}
	}
	return true
}

// String returns a debugging string that describes this fragment.
func (f *Fragment) String() string {
	return "<" + f.toStringInner() + ">"
}

func (f *Fragment) toStringInner() string {
	parts := make([]string, len(f.Content))
	for i, child := range f.Content {
		parts[i] = child.String()
	}
	return strings.Join(parts, ", ")
}
