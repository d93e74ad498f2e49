package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseRule describes how to recognize a DOM element as a node or a mark.
type ParseRule struct {
	// The element name to match, e.g. "p".
	Tag string
	// Rules with a higher priority are tried first. Defaults to 50.
	Priority int
	// Computes the attributes of the node or mark. Returning false means the
	// rule does not match this element.
	GetAttrs func(*html.Node) (map[string]interface{}, bool)
}

const defaultPriority = 50

type nodeRule struct {
	rule ParseRule
	typ  *NodeType
}

type markRule struct {
	rule ParseRule
	typ  *MarkType
}

// A DOMParser is used to parse HTML content into a document conforming to a
// given schema. Its behavior is defined by the ParseDOM rules of the schema
// specs.
type DOMParser struct {
	Schema *Schema

	nodes []nodeRule
	marks []markRule
}

// DOMParserFromSchema constructs a DOM parser using the parsing rules listed
// in a schema's node specs, reordered by priority.
func DOMParserFromSchema(schema *Schema) *DOMParser {
	p := &DOMParser{Schema: schema}
	for _, typ := range schema.nodeOrder {
		for _, rule := range typ.Spec.ParseDOM {
			p.nodes = append(p.nodes, nodeRule{rule: rule, typ: typ})
		}
	}
	for _, typ := range schema.markOrder {
		for _, rule := range typ.Spec.ParseDOM {
			p.marks = append(p.marks, markRule{rule: rule, typ: typ})
		}
	}
	sort.SliceStable(p.nodes, func(i, j int) bool {
		return priority(p.nodes[i].rule) > priority(p.nodes[j].rule)
	})
	sort.SliceStable(p.marks, func(i, j int) bool {
		return priority(p.marks[i].rule) > priority(p.marks[j].rule)
	})
	return p
}

func priority(rule ParseRule) int {
	if rule.Priority == 0 {
		return defaultPriority
	}
	return rule.Priority
}

// ParseHTML parses an HTML fragment into a node of the schema's top type.
func (p *DOMParser) ParseHTML(src string) (*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return p.Parse(body)
}

// Parse a document from the content of a DOM node.
func (p *DOMParser) Parse(dom *html.Node) (*Node, error) {
	top := p.Schema.TopNodeType
	children, err := p.parseChildren(dom, top, NoMarks)
	if err != nil {
		return nil, err
	}
	return top.Create(nil, children, nil)
}

func (p *DOMParser) parseChildren(dom *html.Node, parent *NodeType, marks []*Mark) ([]*Node, error) {
	var out []*Node
	for c := dom.FirstChild; c != nil; c = c.NextSibling {
		nodes, err := p.parseNode(c, parent, marks)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

var whitespace = regexp.MustCompile(`[ \t\r\n\f]+`)

func (p *DOMParser) parseNode(dom *html.Node, parent *NodeType, marks []*Mark) ([]*Node, error) {
	switch dom.Type {
	case html.TextNode:
		if !parent.InlineContent && strings.TrimSpace(dom.Data) == "" {
			return nil, nil
		}
		text := whitespace.ReplaceAllString(dom.Data, " ")
		if text == "" {
			return nil, nil
		}
		return []*Node{p.Schema.Text(text, marks...)}, nil
	case html.ElementNode:
		if typ, attrs, ok := p.matchNode(dom); ok {
			var nodeMarks []*Mark
			childMarks := NoMarks
			if typ.IsInline() {
				nodeMarks = marks
				childMarks = marks
			}
			children, err := p.parseChildren(dom, typ, childMarks)
			if err != nil {
				return nil, err
			}
			node, err := typ.Create(attrs, children, nodeMarks)
			if err != nil {
				return nil, fmt.Errorf("parse <%s>: %w", dom.Data, err)
			}
			return []*Node{node}, nil
		}
		if mark, ok := p.matchMark(dom); ok {
			return p.parseChildren(dom, parent, mark.AddToSet(marks))
		}
		return p.parseChildren(dom, parent, marks)
	case html.DocumentNode:
		return p.parseChildren(dom, parent, marks)
	}
	return nil, nil
}

func (p *DOMParser) matchNode(dom *html.Node) (*NodeType, map[string]interface{}, bool) {
	for _, r := range p.nodes {
		if r.rule.Tag != dom.Data {
			continue
		}
		if r.rule.GetAttrs == nil {
			return r.typ, nil, true
		}
		if attrs, ok := r.rule.GetAttrs(dom); ok {
			return r.typ, attrs, true
		}
	}
	return nil, nil, false
}

func (p *DOMParser) matchMark(dom *html.Node) (*Mark, bool) {
	for _, r := range p.marks {
		if r.rule.Tag != dom.Data {
			continue
		}
		if r.rule.GetAttrs == nil {
			return r.typ.Create(nil), true
		}
		if attrs, ok := r.rule.GetAttrs(dom); ok {
			return r.typ.Create(attrs), true
		}
	}
	return nil, false
}

// DOMAttr returns the value of the named attribute of a DOM element.
func DOMAttr(dom *html.Node, key string) (string, bool) {
	for _, a := range dom.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
