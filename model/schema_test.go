package model_test

import (
	"encoding/json"
	"testing"

	. "github.com/shodgson/wysiwym/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonSpec = `
{
  "nodes": [
    ["doc", { "content": "block+" }],
    ["paragraph", { "content": "inline*", "group": "block" }],
    ["heading", {
      "content": "inline*",
      "group": "block",
      "attrs": { "level": { "default": 1 } }
    }],
    ["code_block", { "content": "text*", "marks": "", "group": "block" }],
    ["text", { "group": "inline" }],
    ["hard_break", { "group": "inline", "inline": true }],
    ["ordered_list", {
      "content": "list_item+",
      "group": "block",
      "attrs": { "order": { "default": 1 } }
    }],
    ["bullet_list", { "content": "list_item+", "group": "block" }],
    ["list_item", { "content": "paragraph block*" }]
  ],
  "marks": [
    ["link", { "attrs": { "href": {}, "title": {} }, "inclusive": false }],
    ["em", {}],
    ["strong", {}]
  ],
  "topNode": "doc"
}`

func TestSchemaSpecFromJSON(t *testing.T) {
	var spec SchemaSpec
	require.NoError(t, json.Unmarshal([]byte(jsonSpec), &spec))
	assert.Len(t, spec.Nodes, 9)
	assert.Equal(t, "heading", spec.Nodes[2].Key)
	assert.Equal(t, 1.0, spec.Nodes[2].Attrs["level"].Default)
	require.NotNil(t, spec.Nodes[3].Marks)
	assert.Equal(t, "", *spec.Nodes[3].Marks)

	data, err := json.Marshal(spec)
	require.NoError(t, err)
	var actual SchemaSpec
	require.NoError(t, json.Unmarshal(data, &actual))
	assert.Equal(t, spec, actual)
}

func TestSchemaFromJSONSpec(t *testing.T) {
	var spec SchemaSpec
	require.NoError(t, json.Unmarshal([]byte(jsonSpec), &spec))
	s, err := NewSchema(&spec)
	require.NoError(t, err)

	assert.Equal(t, "doc", s.TopNodeType.Name)
	assert.Equal(t, []string{"block"}, s.Nodes["paragraph"].Groups)

	// code blocks allow no marks, paragraphs allow all of them
	assert.False(t, s.Nodes["code_block"].AllowsMarkType(s.Marks["em"]))
	assert.True(t, s.Nodes["paragraph"].AllowsMarkType(s.Marks["em"]))
	assert.False(t, s.Nodes["doc"].AllowsMarkType(s.Marks["em"]))

	// mark ranks follow the spec order
	assert.Equal(t, 2, s.Marks["strong"].Rank)
	assert.Len(t, s.MarkTypes(), 3)
	assert.Equal(t, "doc", s.NodeTypes()[0].Name)
}

func TestSchemaErrors(t *testing.T) {
	text := &NodeSpec{Key: "text"}
	build := func(nodes []*NodeSpec, marks ...*MarkSpec) error {
		_, err := NewSchema(&SchemaSpec{Nodes: nodes, Marks: marks})
		return err
	}

	// requires a top node
	assert.Error(t, build([]*NodeSpec{text}))

	// requires a text node
	assert.Error(t, build([]*NodeSpec{{Key: "doc"}}))

	// rejects attributes on text
	assert.Error(t, build([]*NodeSpec{{Key: "doc"}, {Key: "text", Attrs: idAttrs}}))

	// rejects duplicate names
	assert.Error(t, build([]*NodeSpec{{Key: "doc"}, text, {Key: "doc"}}))
	assert.Error(t, build([]*NodeSpec{{Key: "doc"}, text}, &MarkSpec{Key: "em"}, &MarkSpec{Key: "em"}))

	// rejects names used by both a node and a mark
	assert.Error(t, build([]*NodeSpec{{Key: "doc"}, text}, &MarkSpec{Key: "doc"}))

	// reports broken content expressions
	assert.Error(t, build([]*NodeSpec{{Key: "doc", Content: "paragraph+"}, text}))

	// reports unknown marks in mark sets
	marks := "unicorn"
	assert.Error(t, build([]*NodeSpec{{Key: "doc", Content: "text*", Marks: &marks}, text}))

	// accepts a minimal schema
	assert.NoError(t, build([]*NodeSpec{{Key: "doc", Content: "text*"}, text}))
}
