package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/glamour"
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainANSI(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

func TestConvert(t *testing.T) {
	conv := builder.Converter
	src := []byte("# Title\n\nHello *world*\n")

	// markdown to html
	out, err := convert(conv, src, formatMarkdown, formatHTML, plainANSI)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1><p>Hello <em>world</em></p>\n", out)

	// markdown to markdown
	out, err = convert(conv, src, formatMarkdown, formatMarkdown, plainANSI)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nHello *world*\n", out)

	// markdown to doc model
	out, err = convert(conv, src, formatMarkdown, formatDocModel, plainANSI)
	require.NoError(t, err)
	d, err := docmodel.Parse([]byte(out))
	require.NoError(t, err)
	assert.True(t, d.Equal(builder.Doc(builder.H1("Title"), builder.P("Hello ", builder.Em("world")))))

	// editor tree back to markdown
	editorJSON, err := convert(conv, src, formatMarkdown, formatEditor, plainANSI)
	require.NoError(t, err)
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(editorJSON), &raw))
	assert.Equal(t, "doc", raw["type"])
	out, err = convert(conv, []byte(editorJSON), formatEditor, formatMarkdown, plainANSI)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nHello *world*\n", out)

	// html to debug
	out, err = convert(conv, []byte("<p>a</p>"), formatHTML, formatDebug, plainANSI)
	require.NoError(t, err)
	assert.Contains(t, out, `text "a"`)

	// empty paragraphs from the editor are dropped
	out, err = convert(conv, []byte("<p>a</p><p></p>"), formatHTML, formatMarkdown, plainANSI)
	require.NoError(t, err)
	assert.Equal(t, "a\n", out)

	// ansi
	out, err = convert(conv, src, formatMarkdown, formatANSI, plainANSI)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "world")
}

func TestConvertErrors(t *testing.T) {
	conv := builder.Converter

	_, err := convert(conv, []byte("x"), "rtf", formatHTML, plainANSI)
	assert.Error(t, err)

	_, err = convert(conv, []byte("x"), formatMarkdown, "pdf", plainANSI)
	assert.Error(t, err)

	// empty documents don't convert
	_, err = convert(conv, []byte(""), formatMarkdown, formatHTML, plainANSI)
	assert.True(t, errors.Is(err, editor.ErrEmptyProduction))

	_, err = convert(conv, []byte(`{"kind":"document","children":[{"kind":"bullet_list"}]}`), formatDocModel, formatHTML, plainANSI)
	assert.True(t, errors.Is(err, editor.ErrEmptyProduction))
	assert.True(t, strings.Contains(err.Error(), "bullet_list"))
}
