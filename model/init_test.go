package model_test

import (
	"strconv"

	. "github.com/shodgson/wysiwym/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	empty      = ""
	underscore = "_"
	falsy      = false
	emGroup    = "em-group"
	idAttrs    = map[string]*AttributeSpec{
		"id": {},
	}
)

var schema = mustSchema(&SchemaSpec{
	Nodes: []*NodeSpec{
		{Key: "doc", Content: "block+"},
		{Key: "paragraph", Content: "inline*", Group: "block",
			ToDOM:    DOMElement(atom.P),
			ParseDOM: []ParseRule{{Tag: "p"}}},
		{Key: "blockquote", Content: "block+", Group: "block",
			ToDOM:    DOMElement(atom.Blockquote),
			ParseDOM: []ParseRule{{Tag: "blockquote"}}},
		{Key: "horizontal_rule", Group: "block",
			ToDOM:    DOMElement(atom.Hr),
			ParseDOM: []ParseRule{{Tag: "hr"}}},
		{Key: "heading", Content: "inline*", Group: "block",
			Attrs:    map[string]*AttributeSpec{"level": {Default: 1.0}},
			ToDOM:    headingToDOM,
			ParseDOM: []ParseRule{{Tag: "h1", GetAttrs: level(1)}, {Tag: "h2", GetAttrs: level(2)}}},
		{Key: "text", Group: "inline"},
		{Key: "image", Group: "inline", Inline: true,
			Attrs: map[string]*AttributeSpec{"src": nil, "alt": {Default: ""}},
			ToDOM: DOMElement(atom.Img, "src", "alt"),
			ParseDOM: []ParseRule{{Tag: "img", GetAttrs: func(n *html.Node) (map[string]interface{}, bool) {
				src, ok := DOMAttr(n, "src")
				alt, _ := DOMAttr(n, "alt")
				return map[string]interface{}{"src": src, "alt": alt}, ok
			}}}},
		{Key: "hard_break", Group: "inline", Inline: true,
			ToDOM:    DOMElement(atom.Br),
			ParseDOM: []ParseRule{{Tag: "br"}}},
		{Key: "bullet_list", Content: "list_item+", Group: "block",
			ToDOM:    DOMElement(atom.Ul),
			ParseDOM: []ParseRule{{Tag: "ul"}}},
		{Key: "list_item", Content: "paragraph block*",
			ToDOM:    DOMElement(atom.Li),
			ParseDOM: []ParseRule{{Tag: "li"}}},
	},
	Marks: []*MarkSpec{
		{Key: "link", Attrs: map[string]*AttributeSpec{"href": nil, "title": {}},
			ToDOM: DOMElement(atom.A, "href", "title"),
			ParseDOM: []ParseRule{{Tag: "a", GetAttrs: func(n *html.Node) (map[string]interface{}, bool) {
				href, ok := DOMAttr(n, "href")
				return map[string]interface{}{"href": href}, ok
			}}}},
		{Key: "em", ToDOM: DOMElement(atom.Em), ParseDOM: []ParseRule{{Tag: "em"}, {Tag: "i"}}},
		{Key: "strong", ToDOM: DOMElement(atom.Strong), ParseDOM: []ParseRule{{Tag: "strong"}, {Tag: "b"}}},
		{Key: "code", ToDOM: DOMElement(atom.Code), ParseDOM: []ParseRule{{Tag: "code"}}},
	},
})

func mustSchema(spec *SchemaSpec) *Schema {
	s, err := NewSchema(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func headingToDOM(n NodeOrMark) *html.Node {
	lvl := 1
	for _, a := range n.GetAttrs([]string{"level"}) {
		if v, err := strconv.Atoi(a.Val); err == nil {
			lvl = v
		}
	}
	tag := "h" + strconv.Itoa(lvl)
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func level(l float64) func(*html.Node) (map[string]interface{}, bool) {
	return func(*html.Node) (map[string]interface{}, bool) {
		return map[string]interface{}{"level": l}, true
	}
}

func node(name string, attrs map[string]interface{}, children ...interface{}) *Node {
	n, err := schema.Node(name, attrs, flatten(children))
	if err != nil {
		panic(err)
	}
	return n
}

func flatten(children []interface{}) []*Node {
	var content []*Node
	for _, c := range children {
		switch c := c.(type) {
		case string:
			content = append(content, schema.Text(c))
		case *Node:
			content = append(content, c)
		case []*Node:
			content = append(content, c...)
		}
	}
	return content
}

// marked applies mark outside of any marks the children already carry.
func marked(mark *Mark, children ...interface{}) []*Node {
	content := flatten(children)
	for i, c := range content {
		if !mark.IsInSet(c.Marks) {
			content[i] = c.Mark(append([]*Mark{mark}, c.Marks...))
		}
	}
	return content
}

var (
	strong2 = schema.Mark("strong")
	em2     = schema.Mark("em")
	code2   = schema.Mark("code")
	link    = func(href string, title ...string) *Mark {
		attrs := map[string]interface{}{"href": href}
		if len(title) > 0 {
			attrs["title"] = title[0]
		}
		return schema.Mark("link", attrs)
	}

	img = node("image", map[string]interface{}{"src": "img.png", "alt": "x"})
	br  = node("hard_break", nil)
)

func doc(c ...interface{}) *Node        { return node("doc", nil, c...) }
func p(c ...interface{}) *Node          { return node("paragraph", nil, c...) }
func blockquote(c ...interface{}) *Node { return node("blockquote", nil, c...) }
func h1(c ...interface{}) *Node         { return node("heading", map[string]interface{}{"level": 1.0}, c...) }
func h2(c ...interface{}) *Node         { return node("heading", map[string]interface{}{"level": 2.0}, c...) }
func ul(c ...interface{}) *Node         { return node("bullet_list", nil, c...) }
func li(c ...interface{}) *Node         { return node("list_item", nil, c...) }
func em(c ...interface{}) []*Node       { return marked(em2, c...) }
func strong(c ...interface{}) []*Node   { return marked(strong2, c...) }
func code(c ...interface{}) []*Node     { return marked(code2, c...) }
