package list_test

import (
	"errors"
	"testing"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/registry"
	"github.com/shodgson/wysiwym/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	conv = builder.Converter
	doc  = builder.Doc
	p    = builder.P
	li   = builder.Li
	ul   = builder.Ul
)

func ol(order interface{}) builder.NodeBuilder {
	return builder.Kind("ordered_list", map[string]interface{}{"order": order})
}

func TestOrderedList(t *testing.T) {
	d := doc(ol(3.0)(li(p("a")), li(p("b"))))
	tree, err := conv.ToEditorTree(d)
	require.NoError(t, err)

	out, err := conv.RenderHTML(tree)
	require.NoError(t, err)
	assert.Equal(t, `<ol start="3"><li><p>a</p></li><li><p>b</p></li></ol>`, out)

	parsed, err := conv.ParseHTML(out)
	require.NoError(t, err)
	back, err := conv.ToDocTree(parsed)
	require.NoError(t, err)
	assert.True(t, back.Equal(d), docmodel.Debug(back, 0))

	// the default order is left out of the markup
	tree, err = conv.ToEditorTree(doc(ol(1.0)(li(p("a")))))
	require.NoError(t, err)
	out, err = conv.RenderHTML(tree)
	require.NoError(t, err)
	assert.Equal(t, `<ol><li><p>a</p></li></ol>`, out)

	for _, order := range []interface{}{-1.0, 1.5, "3"} {
		_, err := conv.ToEditorTree(doc(ol(order)(li(p("a")))))
		assert.True(t, errors.Is(err, registry.ErrPayload), "%v", order)
	}

	// the order can't be left out
	_, err = conv.ToEditorTree(doc(builder.Kind("ordered_list", nil)(li(p("a")))))
	assert.True(t, errors.Is(err, registry.ErrPayload))
}

func TestNestedLists(t *testing.T) {
	d := doc(ul(li(p("a"), ol(1.0)(li(p("b"), ul(li(p("c")))))), li(p("d"), p("e"))))
	tree, err := conv.ToEditorTree(d)
	require.NoError(t, err)
	assert.Equal(t,
		`doc(bullet_list(list_item(paragraph("a"), ordered_list(list_item(paragraph("b"), bullet_list(list_item(paragraph("c")))))), list_item(paragraph("d"), paragraph("e"))))`,
		tree.String())

	back, err := conv.ToDocTree(tree)
	require.NoError(t, err)
	assert.True(t, back.Equal(d))
}

func TestListItemStartsWithParagraph(t *testing.T) {
	_, err := conv.ToEditorTree(doc(ul(li(builder.H1("x")))))
	assert.Error(t, err)
}
