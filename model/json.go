package model

import (
	"encoding/json"
	"fmt"
)

// NodeJSON is the JSON representation of a node, in the format used by
// prosemirror-model's Node.toJSON.
type NodeJSON struct {
	Type    string                 `json:"type"`
	Attrs   map[string]interface{} `json:"attrs,omitempty"`
	Content []*NodeJSON            `json:"content,omitempty"`
	Text    *string                `json:"text,omitempty"`
	Marks   []*MarkJSON            `json:"marks,omitempty"`
}

// MarkJSON is the JSON representation of a mark.
type MarkJSON struct {
	Type  string                 `json:"type"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// ToJSON returns a JSON-serializeable representation of this node.
func (n *Node) ToJSON() *NodeJSON {
	obj := &NodeJSON{Type: n.Type.Name}
	if len(n.Attrs) > 0 {
		obj.Attrs = n.Attrs
	}
	if n.Content.ChildCount() > 0 {
		obj.Content = make([]*NodeJSON, len(n.Content.Content))
		for i, child := range n.Content.Content {
			obj.Content[i] = child.ToJSON()
		}
	}
	if len(n.Marks) > 0 {
		obj.Marks = make([]*MarkJSON, len(n.Marks))
		for i, m := range n.Marks {
			obj.Marks[i] = m.ToJSON()
		}
	}
	if n.IsText() {
		text := *n.Text
		obj.Text = &text
	}
	return obj
}

// MarshalJSON encodes the node with ToJSON.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.ToJSON())
}

// ToJSON converts this mark to a JSON-serializeable representation.
func (m *Mark) ToJSON() *MarkJSON {
	obj := &MarkJSON{Type: m.Type.Name}
	if len(m.Attrs) > 0 {
		obj.Attrs = m.Attrs
	}
	return obj
}

// NodeFromJSON deserializes a node from its JSON representation.
func NodeFromJSON(schema *Schema, obj *NodeJSON) (*Node, error) {
	if obj == nil {
		return nil, fmt.Errorf("Invalid input for NodeFromJSON")
	}
	marks := make([]*Mark, 0, len(obj.Marks))
	for _, mj := range obj.Marks {
		m, err := MarkFromJSON(schema, mj)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	if obj.Type == "text" {
		if obj.Text == nil {
			return nil, fmt.Errorf("Invalid text node in JSON")
		}
		return schema.Text(*obj.Text, marks...), nil
	}
	typ, err := schema.NodeType(obj.Type)
	if err != nil {
		return nil, err
	}
	children := make([]*Node, 0, len(obj.Content))
	for _, cj := range obj.Content {
		child, err := NodeFromJSON(schema, cj)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return typ.Create(obj.Attrs, children, marks)
}

// MarkFromJSON deserializes a mark from its JSON representation.
func MarkFromJSON(schema *Schema, obj *MarkJSON) (*Mark, error) {
	typ, err := schema.MarkType(obj.Type)
	if err != nil {
		return nil, fmt.Errorf("There is no mark type %s in this schema", obj.Type)
	}
	return typ.Create(obj.Attrs), nil
}

// ParseNodeJSON decodes raw JSON into a node of the given schema.
func ParseNodeJSON(schema *Schema, data []byte) (*Node, error) {
	var obj NodeJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return NodeFromJSON(schema, &obj)
}
