package markdown

import (
	"bytes"
	"fmt"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/schema/basic"
	"github.com/shodgson/wysiwym/schema/list"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Importer converts a goldmark node into a doc node. children imports the
// children of n. Returning the zero node drops n from the document.
type Importer func(n ast.Node, source []byte, children func() ([]docmodel.Node, error)) (docmodel.Node, error)

// Parser reads Markdown into documents. Goldmark nodes without an importer
// are replaced by a fragment of their children.
type Parser struct {
	md        goldmark.Markdown
	importers map[ast.NodeKind]Importer
}

// NewParser returns a parser with the importers for the basic and list
// kinds. The options are passed to goldmark.
func NewParser(opts ...goldmark.Option) *Parser {
	p := &Parser{
		md:        goldmark.New(opts...),
		importers: make(map[ast.NodeKind]Importer),
	}
	p.Register(ast.KindParagraph, importParagraph)
	p.Register(ast.KindTextBlock, importParagraph)
	p.Register(ast.KindHeading, importHeading)
	p.Register(ast.KindText, importText)
	p.Register(ast.KindString, importString)
	p.Register(ast.KindEmphasis, importEmphasis)
	p.Register(ast.KindList, importList)
	p.Register(ast.KindListItem, importListItem)
	p.Register(ast.KindAutoLink, importAutoLink)
	p.Register(ast.KindFencedCodeBlock, importCodeBlock)
	p.Register(ast.KindCodeBlock, importCodeBlock)
	p.Register(ast.KindHTMLBlock, dropNode)
	p.Register(ast.KindRawHTML, dropNode)
	return p
}

// Register sets the importer for a goldmark node kind, replacing any
// previous one.
func (p *Parser) Register(kind ast.NodeKind, fn Importer) {
	p.importers[kind] = fn
}

// DefaultParser is a parser with the default goldmark options.
var DefaultParser = NewParser()

// Parse reads source with DefaultParser.
func Parse(source []byte) (docmodel.Node, error) {
	return DefaultParser.Parse(source)
}

// Parse reads source into a document.
func (p *Parser) Parse(source []byte) (docmodel.Node, error) {
	root := p.md.Parser().Parse(text.NewReader(source))
	blocks, err := p.importChildren(root, source)
	if err != nil {
		return docmodel.Node{}, err
	}
	return docmodel.NewDocument(blocks...), nil
}

func (p *Parser) importNode(n ast.Node, source []byte) (docmodel.Node, error) {
	if fn, ok := p.importers[n.Kind()]; ok {
		return fn(n, source, func() ([]docmodel.Node, error) {
			return p.importChildren(n, source)
		})
	}
	if !n.HasChildren() {
		return docmodel.Node{}, fmt.Errorf("markdown %s has no importer and no children", n.Kind())
	}
	children, err := p.importChildren(n, source)
	if err != nil {
		return docmodel.Node{}, err
	}
	return docmodel.NewFragment(children...), nil
}

func (p *Parser) importChildren(n ast.Node, source []byte) ([]docmodel.Node, error) {
	var out []docmodel.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		node, err := p.importNode(c, source)
		if err != nil {
			return nil, err
		}
		if !node.IsZero() {
			out = append(out, node)
		}
	}
	return out, nil
}

func wrap(kind docmodel.Kind, payload interface{}) Importer {
	return func(_ ast.Node, _ []byte, children func() ([]docmodel.Node, error)) (docmodel.Node, error) {
		nodes, err := children()
		if err != nil {
			return docmodel.Node{}, err
		}
		return docmodel.NewNode(kind, payload, nodes...), nil
	}
}

var (
	importParagraph = wrap(basic.KindParagraph, nil)
	importListItem  = wrap(list.KindListItem, nil)
)

func importHeading(n ast.Node, source []byte, children func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	h := n.(*ast.Heading)
	return wrap(basic.KindHeading, map[string]interface{}{"level": float64(h.Level)})(n, source, children)
}

func importEmphasis(n ast.Node, source []byte, children func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	kind := basic.KindEmph
	if n.(*ast.Emphasis).Level > 1 {
		kind = basic.KindStrong
	}
	return wrap(kind, nil)(n, source, children)
}

func importList(n ast.Node, source []byte, children func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	l := n.(*ast.List)
	if l.IsOrdered() {
		return wrap(list.KindOrderedList, map[string]interface{}{"order": float64(l.Start)})(n, source, children)
	}
	return wrap(list.KindBulletList, nil)(n, source, children)
}

// Soft line breaks are kept as newlines in the text.
func importText(n ast.Node, source []byte, _ func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	t := n.(*ast.Text)
	var out []docmodel.Node
	if value := t.Segment.Value(source); len(value) > 0 {
		out = append(out, docmodel.NewText(string(value)))
	}
	switch {
	case t.HardLineBreak():
		out = append(out, docmodel.NewNode(basic.KindHardBreak, nil))
	case t.SoftLineBreak():
		out = append(out, docmodel.NewText("\n"))
	}
	switch len(out) {
	case 0:
		return docmodel.Node{}, nil
	case 1:
		return out[0], nil
	}
	return docmodel.NewFragment(out...), nil
}

func importString(n ast.Node, _ []byte, _ func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	s := n.(*ast.String)
	if len(s.Value) == 0 {
		return docmodel.Node{}, nil
	}
	return docmodel.NewText(string(s.Value)), nil
}

func importAutoLink(n ast.Node, source []byte, _ func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	return docmodel.NewText(string(n.(*ast.AutoLink).URL(source))), nil
}

// Code blocks become plain paragraphs, as no kind renders code.
func importCodeBlock(n ast.Node, source []byte, _ func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	content := string(bytes.TrimRight(buf.Bytes(), "\n"))
	if content == "" {
		return docmodel.Node{}, nil
	}
	return docmodel.NewNode(basic.KindParagraph, nil, docmodel.NewText(content)), nil
}

func dropNode(ast.Node, []byte, func() ([]docmodel.Node, error)) (docmodel.Node, error) {
	return docmodel.Node{}, nil
}
