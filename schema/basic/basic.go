// Package basic defines the paragraph, heading, hard break, text, emphasis
// and strong kinds, with their editor schema fragments and converters.
package basic

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
	KindParagraph       docmodel.Kind = "paragraph"
	KindPseudoParagraph docmodel.Kind = "pseudo_paragraph"
	KindHeading         docmodel.Kind = "heading"
	KindHardBreak       docmodel.Kind = "hard_break"
	KindEmph            docmodel.Kind = "emph"
	KindStrong          docmodel.Kind = "strong"
)

const pseudoAttr = "data-pseudo"

var (
	paragraphAttrs = map[string]*model.AttributeSpec{
		"pseudo": {Default: false},
	}
	headingAttrs = map[string]*model.AttributeSpec{
		"level": {Default: 1.0},
	}
)

// Paragraph is a plain textblock, represented in the DOM as a <p> element.
// Pseudo paragraphs share its editor type and set the pseudo attribute.
var Paragraph = &model.NodeSpec{
	Content: "inline*",
	Group:   "block",
	Attrs:   paragraphAttrs,
	ToDOM: func(n model.NodeOrMark) *html.Node {
		p := model.DOMElement(atom.P)(n)
		if node, ok := n.(*model.Node); ok && node.Attrs["pseudo"] == true {
			p.Attr = append(p.Attr, html.Attribute{Key: pseudoAttr, Val: "true"})
		}
		return p
	},
	ParseDOM: []model.ParseRule{
		{Tag: "p", Priority: 60, GetAttrs: func(n *html.Node) (map[string]interface{}, bool) {
			v, ok := model.DOMAttr(n, pseudoAttr)
			return map[string]interface{}{"pseudo": true}, ok && v == "true"
		}},
		{Tag: "p"},
	},
}

// Heading is a textblock with a level attribute from 1 to 6, parsed and
// serialized as <h1> to <h6> elements. Its payload must carry the level.
var Heading = &model.NodeSpec{
	Content:  "inline*",
	Group:    "block",
	Attrs:    headingAttrs,
	ToDOM:    headingToDOM,
	ParseDOM: headingRules(),
}

// HardBreak is an inline line break, represented in the DOM as <br>.
var HardBreak = &model.NodeSpec{
	Group:    "inline",
	Inline:   true,
	ToDOM:    model.DOMElement(atom.Br),
	ParseDOM: []model.ParseRule{{Tag: "br"}},
}

// Emph is rendered as <em> and also parsed from <i>.
var Emph = &model.MarkSpec{
	ToDOM:    model.DOMElement(atom.Em),
	ParseDOM: []model.ParseRule{{Tag: "em"}, {Tag: "i"}},
}

// Strong is rendered as <strong> and also parsed from <b>.
var Strong = &model.MarkSpec{
	ToDOM:    model.DOMElement(atom.Strong),
	ParseDOM: []model.ParseRule{{Tag: "strong"}, {Tag: "b"}},
}

// Register adds every kind of the package to r.
func Register(r *registry.Registry) {
	registerParagraphs(r)
	registerHeading(r)
	registerHardBreak(r)
	registerText(r)
	registerMark(r, KindEmph, Emph)
	registerMark(r, KindStrong, Strong)
}

func registerParagraphs(r *registry.Registry) {
	r.RegisterNodeSpec(KindParagraph, registry.NodeFragment{Spec: Paragraph, Flow: registry.FlowInline})
	r.RegisterNodeToEditor(KindParagraph, func(schema *model.Schema, _ docmodel.Node, children []*model.Node) (*model.Node, error) {
		return schema.Node(string(KindParagraph), nil, children)
	})

	r.RegisterNodeSpec(KindPseudoParagraph, registry.NodeFragment{Flow: registry.FlowInline})
	r.RegisterNodeToEditor(KindPseudoParagraph, func(schema *model.Schema, _ docmodel.Node, children []*model.Node) (*model.Node, error) {
		return schema.Node(string(KindParagraph), map[string]interface{}{"pseudo": true}, children)
	})

	r.RegisterNodeFromEditor(string(KindParagraph), func(node *model.Node, children []docmodel.Node) (docmodel.Node, error) {
		if node.Attrs["pseudo"] == true {
			return docmodel.NewNode(KindPseudoParagraph, nil, children...), nil
		}
		return docmodel.NewNode(KindParagraph, nil, children...), nil
	})
}

func registerHeading(r *registry.Registry) {
	r.RegisterNodeSpec(KindHeading, registry.NodeFragment{Spec: Heading, Flow: registry.FlowInline})
	r.RegisterNodeToEditor(KindHeading, func(schema *model.Schema, node docmodel.Node, children []*model.Node) (*model.Node, error) {
		level, err := registry.RequiredPayloadNumber(node.Payload, "level")
		if err != nil {
			return nil, err
		}
		if level < 1 || level > 6 || level != float64(int(level)) {
			return nil, fmt.Errorf("%w: heading level %v", registry.ErrPayload, level)
		}
		return schema.Node(string(KindHeading), map[string]interface{}{"level": level}, children)
	})
	r.RegisterNodeFromEditor(string(KindHeading), func(node *model.Node, children []docmodel.Node) (docmodel.Node, error) {
		level, err := registry.PayloadNumber(node.Attrs, "level", 1)
		if err != nil {
			return docmodel.Node{}, err
		}
		return docmodel.NewNode(KindHeading, map[string]interface{}{"level": level}, children...), nil
	})
}

func registerHardBreak(r *registry.Registry) {
	r.RegisterNodeSpec(KindHardBreak, registry.NodeFragment{Spec: HardBreak})
	r.RegisterNodeToEditor(KindHardBreak, func(schema *model.Schema, _ docmodel.Node, children []*model.Node) (*model.Node, error) {
		if len(children) > 0 {
			return nil, fmt.Errorf("%w: hard_break has no children", registry.ErrPayload)
		}
		return schema.Node(string(KindHardBreak), nil, nil)
	})
	r.RegisterNodeFromEditor(string(KindHardBreak), func(*model.Node, []docmodel.Node) (docmodel.Node, error) {
		return docmodel.NewNode(KindHardBreak, nil), nil
	})
}

// Text leaves are built by the engine itself; only the way back is
// registered.
func registerText(r *registry.Registry) {
	r.RegisterNodeFromEditor("text", func(node *model.Node, _ []docmodel.Node) (docmodel.Node, error) {
		return docmodel.NewText(*node.Text), nil
	})
}

func registerMark(r *registry.Registry, kind docmodel.Kind, spec *model.MarkSpec) {
	r.RegisterMarkSpec(kind, registry.MarkFragment{Spec: spec})
	r.RegisterMarkToEditor(kind, func(schema *model.Schema, _ docmodel.Node) (*model.Mark, error) {
		typ, err := schema.MarkType(string(kind))
		if err != nil {
			return nil, err
		}
		return typ.Create(nil), nil
	})
	r.RegisterMarkFromEditor(string(kind), func(_ *model.Mark, children []docmodel.Node) (docmodel.Node, error) {
		return docmodel.NewNode(kind, nil, children...), nil
	})
}

func headingToDOM(n model.NodeOrMark) *html.Node {
	level := 1
	for _, a := range n.GetAttrs([]string{"level"}) {
		if v, err := strconv.Atoi(a.Val); err == nil {
			level = v
		}
	}
	tag := "h" + strconv.Itoa(level)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func headingRules() []model.ParseRule {
	rules := make([]model.ParseRule, 0, 6)
	for i := 1; i <= 6; i++ {
		level := float64(i)
		rules = append(rules, model.ParseRule{
			Tag: "h" + strconv.Itoa(i),
			GetAttrs: func(*html.Node) (map[string]interface{}, bool) {
				return map[string]interface{}{"level": level}, true
			},
		})
	}
	return rules
}
