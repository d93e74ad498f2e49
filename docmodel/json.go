package docmodel

import "encoding/json"

type nodeJSON struct {
	Kind     Kind        `json:"kind"`
	Payload  interface{} `json:"payload,omitempty"`
	Children []Node      `json:"children,omitempty"`
}

// MarshalJSON encodes the node with the keys kind, payload and children.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{Kind: n.Kind, Payload: n.Payload, Children: n.Children})
}

// UnmarshalJSON decodes a node encoded by MarshalJSON. Payloads decode as
// generic JSON values.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{Kind: raw.Kind, Payload: raw.Payload, Children: raw.Children}
	return nil
}

// Parse decodes a JSON document tree.
func Parse(data []byte) (Node, error) {
	var n Node
	err := json.Unmarshal(data, &n)
	return n, err
}
