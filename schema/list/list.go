// Package list defines the bullet_list, ordered_list and list_item kinds. Lists
// are nestable, with the restriction that the first child of a list item is a
// paragraph.
package list

import (
	"fmt"
	"strconv"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/model"
	"github.com/shodgson/wysiwym/registry"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kinds defined in this package.
const (
	KindBulletList  docmodel.Kind = "bullet_list"
	KindOrderedList docmodel.Kind = "ordered_list"
	KindListItem    docmodel.Kind = "list_item"
)

var (
	// OrderedList has a single attribute, order, which determines the number
	// at which the list starts counting, and defaults to 1. Represented as an
	// <ol> element.
	OrderedList = &model.NodeSpec{
		Content: "list_item+",
		Group:   "block",
		Attrs: map[string]*model.AttributeSpec{
			"order": {Default: 1.0},
		},
		ToDOM: func(n model.NodeOrMark) *html.Node {
			ol := model.DOMElement(atom.Ol)(n)
			for _, a := range n.GetAttrs([]string{"order"}) {
				if a.Val != "1" {
					ol.Attr = append(ol.Attr, html.Attribute{Key: "start", Val: a.Val})
				}
			}
			return ol
		},
		ParseDOM: []model.ParseRule{{Tag: "ol", GetAttrs: func(n *html.Node) (map[string]interface{}, bool) {
			order := 1.0
			if start, ok := model.DOMAttr(n, "start"); ok {
				if v, err := strconv.ParseFloat(start, 64); err == nil {
					order = v
				}
			}
			return map[string]interface{}{"order": order}, true
		}}},
	}

	// BulletList is represented in the DOM as <ul>.
	BulletList = &model.NodeSpec{
		Content:  "list_item+",
		Group:    "block",
		ToDOM:    model.DOMElement(atom.Ul),
		ParseDOM: []model.ParseRule{{Tag: "ul"}},
	}

	// ListItem is represented as <li>.
	ListItem = &model.NodeSpec{
		Content:  "paragraph block*",
		ToDOM:    model.DOMElement(atom.Li),
		ParseDOM: []model.ParseRule{{Tag: "li"}},
	}
)

// Register adds the list kinds to r. They expect a paragraph kind to be
// registered as well.
func Register(r *registry.Registry) {
	registerContainer(r, KindBulletList, BulletList)
	registerContainer(r, KindListItem, ListItem)

	r.RegisterNodeSpec(KindOrderedList, registry.NodeFragment{Spec: OrderedList, Flow: registry.FlowBlock})
	r.RegisterNodeToEditor(KindOrderedList, func(schema *model.Schema, node docmodel.Node, children []*model.Node) (*model.Node, error) {
		order, err := registry.RequiredPayloadNumber(node.Payload, "order")
		if err != nil {
			return nil, err
		}
		if order < 0 || order != float64(int(order)) {
			return nil, fmt.Errorf("%w: list order %v", registry.ErrPayload, order)
		}
		return schema.Node(string(KindOrderedList), map[string]interface{}{"order": order}, children)
	})
	r.RegisterNodeFromEditor(string(KindOrderedList), func(node *model.Node, children []docmodel.Node) (docmodel.Node, error) {
		order, err := registry.PayloadNumber(node.Attrs, "order", 1)
		if err != nil {
			return docmodel.Node{}, err
		}
		return docmodel.NewNode(KindOrderedList, map[string]interface{}{"order": order}, children...), nil
	})
}

func registerContainer(r *registry.Registry, kind docmodel.Kind, spec *model.NodeSpec) {
	r.RegisterNodeSpec(kind, registry.NodeFragment{Spec: spec, Flow: registry.FlowBlock})
	r.RegisterNodeToEditor(kind, func(schema *model.Schema, _ docmodel.Node, children []*model.Node) (*model.Node, error) {
		return schema.Node(string(kind), nil, children)
	})
	r.RegisterNodeFromEditor(string(kind), func(_ *model.Node, children []docmodel.Node) (docmodel.Node, error) {
		return docmodel.NewNode(kind, nil, children...), nil
	})
}
