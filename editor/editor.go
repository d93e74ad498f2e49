// Package editor converts documents to editor trees and back, driven by the
// kinds of a registry.
package editor

import (
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
)

// Converter pairs a registry with the schema assembled from it.
type Converter struct {
	registry *registry.Registry
	schema   *model.Schema
}

// NewConverter assembles the schema of r. The registry must not be changed
// afterwards.
func NewConverter(r *registry.Registry) (*Converter, error) {
	schema, err := BuildSchema(r)
	if err != nil {
		return nil, err
	}
	return &Converter{registry: r, schema: schema}, nil
}

// Schema returns the assembled schema.
func (c *Converter) Schema() *model.Schema {
	return c.schema
}

// Registry returns the registry the converter was built from.
func (c *Converter) Registry() *registry.Registry {
	return c.registry
}

// ToEditorTree converts a document into an editor tree.
func (c *Converter) ToEditorTree(doc docmodel.Node) (*model.Node, error) {
	return ToEditorTree(c.registry, c.schema, doc)
}

// ToDocTree converts an editor tree into a document.
func (c *Converter) ToDocTree(root *model.Node) (docmodel.Node, error) {
	return ToDocTree(c.registry, root)
}

// Normalize drops the empty parts of doc and checks the flow of its nodes.
func (c *Converter) Normalize(doc docmodel.Node) (docmodel.Node, error) {
	return Normalize(c.registry, doc)
}

// ParseEditorJSON decodes an editor tree in the JSON format of the editing
// surface and checks it against the schema.
func (c *Converter) ParseEditorJSON(data []byte) (*model.Node, error) {
	root, err := model.ParseNodeJSON(c.schema, data)
	if err != nil {
		return nil, convErr(TopNodeName, ErrStructure, "%v", err)
	}
	if err := root.Check(); err != nil {
		return nil, convErr(root.Type.Name, ErrStructure, "%v", err)
	}
	return root, nil
}

// ParseHTML reads the markup produced by the editing surface into an editor
// tree and checks it against the schema.
func (c *Converter) ParseHTML(src string) (*model.Node, error) {
	root, err := model.DOMParserFromSchema(c.schema).ParseHTML(src)
	if err != nil {
		return nil, convErr(TopNodeName, ErrStructure, "%v", err)
	}
	if err := root.Check(); err != nil {
		return nil, convErr(root.Type.Name, ErrStructure, "%v", err)
	}
	return root, nil
}

// RenderHTML serializes an editor tree with the ToDOM functions of the
// schema.
func (c *Converter) RenderHTML(root *model.Node) (string, error) {
	return model.DOMSerializerFromSchema(c.schema).RenderHTML(root)
}
