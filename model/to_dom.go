package model

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ToDOM builds the DOM node for a node or a mark. Content is appended to the
// innermost first child of the returned element.
type ToDOM = func(NodeOrMark) *html.Node

// NodeOrMark is implemented by Node and Mark, so that ToDOM functions can be
// shared between the two.
type NodeOrMark interface {
	GetAttrs([]string) []html.Attribute
}

// GetAttrs returns the given attributes of the node as HTML attributes. When
// no names are given, all attributes are returned.
func (n *Node) GetAttrs(selected []string) []html.Attribute {
	return htmlAttrs(n.Attrs, selected)
}

// GetAttrs returns the given attributes of the mark as HTML attributes. When
// no names are given, all attributes are returned.
func (m *Mark) GetAttrs(selected []string) []html.Attribute {
	return htmlAttrs(m.Attrs, selected)
}

func htmlAttrs(attrs map[string]interface{}, selected []string) []html.Attribute {
	keys := selected
	if len(keys) == 0 {
		for key := range attrs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}
	result := []html.Attribute{}
	for _, key := range keys {
		value, ok := attrs[key]
		if !ok {
			continue
		}
		if val, ok := attrString(value); ok {
			result = append(result, html.Attribute{Key: key, Val: val})
		}
	}
	return result
}

func attrString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		if v {
			return "true", true
		}
	}
	return "", false
}

// DOMElement returns a ToDOM function creating an element for the given atom,
// carrying the listed attributes.
func DOMElement(a atom.Atom, attrs ...string) ToDOM {
	return func(n NodeOrMark) *html.Node {
		var htmlAttrs []html.Attribute
		if len(attrs) > 0 {
			htmlAttrs = n.GetAttrs(attrs)
		}
		return &html.Node{
			Type:     html.ElementNode,
			DataAtom: a,
			Data:     a.String(),
			Attr:     htmlAttrs,
		}
	}
}

// A DOMSerializer knows how to convert nodes and marks of various types to
// DOM nodes.
type DOMSerializer struct {
	// The node serialization functions.
	Nodes map[string]ToDOM

	// The mark serialization functions. A mark without a function is not
	// serialized.
	Marks map[string]ToDOM
}

// DOMSerializerFromSchema builds a serializer using the properties in a
// schema's node and mark specs.
func DOMSerializerFromSchema(schema *Schema) *DOMSerializer {
	return &DOMSerializer{
		Nodes: nodesFromSchema(schema),
		Marks: marksFromSchema(schema),
	}
}

type activeMark struct {
	mark *Mark
	top  *html.Node
}

// SerializeFragment serializes the content of this fragment to a DOM node.
// When target is nil, a new document node is created.
func (d *DOMSerializer) SerializeFragment(fragment *Fragment, target *html.Node) (*html.Node, error) {
	if target == nil {
		target = &html.Node{Type: html.DocumentNode}
	}
	var active []activeMark
	top := target
	for _, node := range fragment.Content {
		if len(active) > 0 || len(node.Marks) > 0 {
			keep, rendered := 0, 0
			for keep < len(active) && rendered < len(node.Marks) {
				next := node.Marks[rendered]
				if d.Marks[next.Type.Name] == nil {
					rendered++
					continue
				}
				if !next.Eq(active[keep].mark) || (next.Type.Spec.Spanning != nil && !*next.Type.Spec.Spanning) {
					break
				}
				keep++
				rendered++
			}
			for keep < len(active) {
				n := len(active)
				top, active = active[n-1].top, active[:n-1]
			}
			for rendered < len(node.Marks) {
				add := node.Marks[rendered]
				rendered++
				markDOM := d.serializeMark(add)
				if markDOM != nil {
					active = append(active, activeMark{mark: add, top: top})
					top.AppendChild(markDOM)
					top = contentHole(markDOM)
				}
			}
		}
		child, err := d.SerializeNode(node)
		if err != nil {
			return nil, err
		}
		top.AppendChild(child)
	}
	return target, nil
}

func (d *DOMSerializer) serializeMark(mark *Mark) *html.Node {
	toDOM := d.Marks[mark.Type.Name]
	if toDOM == nil {
		return nil
	}
	return toDOM(mark)
}

// SerializeNode serializes this node to a DOM node. This can be useful when
// you need to serialize a part of a document, as opposed to the whole
// document.
func (d *DOMSerializer) SerializeNode(node *Node) (*html.Node, error) {
	toDOM := d.Nodes[node.Type.Name]
	if toDOM == nil {
		return nil, fmt.Errorf("No DOM serializer for node type %s", node.Type.Name)
	}
	dom := toDOM(node)
	if node.ChildCount() > 0 {
		if _, err := d.SerializeFragment(node.Content, contentHole(dom)); err != nil {
			return nil, err
		}
	}
	return dom, nil
}

// RenderHTML serializes a node's content to an HTML string.
func (d *DOMSerializer) RenderHTML(node *Node) (string, error) {
	dom, err := d.SerializeFragment(node.Content, nil)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, dom); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func contentHole(dom *html.Node) *html.Node {
	for dom.FirstChild != nil && dom.FirstChild.Type == html.ElementNode {
		dom = dom.FirstChild
	}
	return dom
}

func nodesFromSchema(schema *Schema) map[string]ToDOM {
	result := make(map[string]ToDOM)
	for _, n := range schema.nodeOrder {
		if n.Spec.ToDOM != nil {
			result[n.Name] = n.Spec.ToDOM
		}
	}
	if _, ok := result["text"]; !ok {
		result["text"] = func(n NodeOrMark) *html.Node {
			node := n.(*Node)
			return &html.Node{Type: html.TextNode, Data: *node.Text}
		}
	}
	return result
}

func marksFromSchema(schema *Schema) map[string]ToDOM {
	result := make(map[string]ToDOM)
	for _, m := range schema.markOrder {
		if m.Spec.ToDOM != nil {
			result[m.Name] = m.Spec.ToDOM
		}
	}
	return result
}
