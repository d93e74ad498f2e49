// Package builder has shorthands to build document and editor trees in tests.
package builder

import (
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
	"github.com/shodgson/wysiwym/schema/basic"
	"github.com/shodgson/wysiwym/schema/list"
)

// NodeBuilder builds a doc node. Strings among the arguments become text
// nodes and slices of nodes are spliced in.
type NodeBuilder func(args ...interface{}) docmodel.Node

// NewRegistry returns a registry with the basic and list kinds.
func NewRegistry() *registry.Registry {
	return registry.New(basic.Register, list.Register)
}

// Converter is built from NewRegistry.
var Converter = mustConverter(NewRegistry())

// Schema is the schema of Converter.
var Schema = Converter.Schema()

func mustConverter(r *registry.Registry) *editor.Converter {
	c, err := editor.NewConverter(r)
	if err != nil {
		panic(err)
	}
	return c
}

// Children turns builder arguments into doc nodes.
func Children(args []interface{}) []docmodel.Node {
	var out []docmodel.Node
	for _, arg := range args {
		switch a := arg.(type) {
		case string:
			out = append(out, docmodel.NewText(a))
		case docmodel.Node:
			out = append(out, a)
		case []docmodel.Node:
			out = append(out, a...)
		}
	}
	return out
}

// Kind returns a builder for nodes of the given kind and payload.
func Kind(kind docmodel.Kind, payload interface{}) NodeBuilder {
	return func(args ...interface{}) docmodel.Node {
		return docmodel.NewNode(kind, payload, Children(args)...)
	}
}

// Heading returns a builder for headings of the given level.
func Heading(level float64) NodeBuilder {
	return Kind(basic.KindHeading, map[string]interface{}{"level": level})
}

var (
	Doc = func(args ...interface{}) docmodel.Node {
		return docmodel.NewDocument(Children(args)...)
	}
	Frag = func(args ...interface{}) docmodel.Node {
		return docmodel.NewFragment(Children(args)...)
	}
	P      = Kind(basic.KindParagraph, nil)
	Pseudo = Kind(basic.KindPseudoParagraph, nil)
	H1     = Heading(1)
	H2     = Heading(2)
	Ul     = Kind(list.KindBulletList, nil)
	Ol     = Kind(list.KindOrderedList, map[string]interface{}{"order": 1.0})
	Li     = Kind(list.KindListItem, nil)
	Em     = Kind(basic.KindEmph, nil)
	Strong = Kind(basic.KindStrong, nil)
	Br     = docmodel.NewNode(basic.KindHardBreak, nil)
)

// Node builds an editor node of Schema. Strings become plain text nodes.
func Node(typ string, attrs map[string]interface{}, args ...interface{}) *model.Node {
	var content []*model.Node
	for _, arg := range args {
		switch a := arg.(type) {
		case string:
			content = append(content, Schema.Text(a))
		case *model.Node:
			content = append(content, a)
		case []*model.Node:
			content = append(content, a...)
		}
	}
	n, err := Schema.Node(typ, attrs, content)
	if err != nil {
		panic(err)
	}
	return n
}

// Text builds an editor text node carrying the named marks, outermost first.
func Text(text string, marks ...string) *model.Node {
	set := make([]*model.Mark, len(marks))
	for i, name := range marks {
		set[i] = Schema.Mark(name)
	}
	return Schema.Text(text, set...)
}
