package markdown

import (
	"testing"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
)

var (
	conv   = builder.Converter
	doc    = builder.Doc
	frag   = builder.Frag
	p      = builder.P
	h1     = builder.H1
	h2     = builder.H2
	ul     = builder.Ul
	ol     = builder.Ol
	li     = builder.Li
	em     = builder.Em
	strong = builder.Strong
	br     = builder.Br
	ol3    = builder.Kind("ordered_list", map[string]interface{}{"order": 3.0})
)

func TestParse(t *testing.T) {
	parse := func(text string, expected docmodel.Node) {
		actual, err := Parse([]byte(text))
		require.NoError(t, err, text)
		assert.True(t, actual.Equal(expected), "%q:\n%s!=\n%s", text, docmodel.Debug(actual, 0), docmodel.Debug(expected, 0))
	}

	// parses a paragraph
	parse("hello!", doc(p("hello!")))

	// parses headings
	parse("# one\n\n## two\n\nthree", doc(h1("one"), h2("two"), p("three")))

	// parses inline marks
	parse("Some *em* and **strong** text",
		doc(p("Some ", em("em"), " and ", strong("strong"), " text")))

	// parses nested marks
	parse("**a *b***", doc(p(strong("a ", em("b")))))

	// keeps soft breaks as newlines
	parse("line one\nline two", doc(p("line one", "\n", "line two")))

	// parses hard breaks
	parse("foo\\\nbar", doc(p("foo", br, "bar")))

	// parses tight lists
	parse("* a\n* b", doc(ul(li(p("a")), li(p("b")))))

	// parses nested lists
	parse("* foo\n\n  * bar\n\n* quux", doc(ul(li(p("foo"), ul(li(p("bar")))), li(p("quux")))))

	// preserves ordered list start number
	parse("3. Foo\n4. Bar", doc(ol3(li(p("Foo")), li(p("Bar")))))
	parse("1. x", doc(ol(li(p("x")))))

	// looks through nodes without importer
	parse("> quote", doc(frag(p("quote"))))
	parse("[a](b)", doc(p(frag("a"))))

	// reads autolinks as text
	parse("<https://example.com>", doc(p("https://example.com")))

	// reads code blocks as paragraphs
	parse("```\nab\ncd\n```", doc(p("ab\ncd")))

	// drops HTML
	parse("<div>x</div>\n\npara", doc(p("para")))
}

func TestParseErrors(t *testing.T) {
	// a node without importer nor children
	_, err := Parse([]byte("a\n\n---"))
	assert.Error(t, err)

	// importers can be added
	parser := NewParser()
	parser.Register(ast.KindThematicBreak, func(ast.Node, []byte, func() ([]docmodel.Node, error)) (docmodel.Node, error) {
		return docmodel.NewNode("rule", nil), nil
	})
	d, err := parser.Parse([]byte("a\n\n---"))
	require.NoError(t, err)
	assert.True(t, d.Equal(doc(p("a"), builder.Kind("rule", nil)())))
}

func TestRoundTrip(t *testing.T) {
	for _, text := range []string{
		"hello!",
		"# one\n\n## two\n\nthree",
		"Some *em* and **strong** text",
		"**a *b***",
		"line one\nline two",
		"foo\\\nbar",
		"* foo\n\n  * bar\n\n  * baz\n\n* quux",
		"1. Hello\n\n2. Goodbye\n\n3. Nest\n\n   1. Hey\n\n   2. Aye",
		"3. Foo\n\n4. Bar",
	} {
		d, err := Parse([]byte(text))
		require.NoError(t, err, text)
		out, err := FromDoc(conv, d)
		require.NoError(t, err, text)
		assert.Equal(t, text, out)
	}
}
