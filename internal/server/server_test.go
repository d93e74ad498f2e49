package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shodgson/wysiwym/internal/metrics"
	"github.com/shodgson/wysiwym/internal/storage"
	"github.com/shodgson/wysiwym/test/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, storage.Storage, http.Handler) {
	store := storage.NewFileStorage(t.TempDir())
	s := New(builder.Converter, store, WithMetrics(metrics.New(), "/metrics"))
	return s, store, s.Handler()
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestViewMissingPageRedirectsToEdit(t *testing.T) {
	_, _, h := newTestServer(t)
	rec := do(h, "GET", "/wiki/new", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/wiki:new?action=edit", rec.Header().Get("Location"))

	rec = do(h, "GET", "/", nil)
	assert.Equal(t, "/start?action=edit", rec.Header().Get("Location"))
}

func TestSaveDocModel(t *testing.T) {
	_, store, h := newTestServer(t)
	d := builder.Doc(builder.H1("Title"), builder.P("Hello ", builder.Em("world")))
	raw, err := json.Marshal(d)
	require.NoError(t, err)

	rec := do(h, "POST", "/start?action=save", url.Values{"docmodel": {string(raw)}})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/start", rec.Header().Get("Location"))

	page, err := store.GetPage(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nHello *world*", page.Content)

	// the page is rendered through the editor tree
	rec = do(h, "GET", "/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Title</h1><p>Hello <em>world</em></p>")
}

func TestSaveEditorTree(t *testing.T) {
	_, store, h := newTestServer(t)
	tree, err := builder.Converter.ToEditorTree(builder.Doc(builder.Ul(builder.Li(builder.P("one")), builder.Li(builder.P("two")))))
	require.NoError(t, err)
	raw, err := json.Marshal(tree)
	require.NoError(t, err)

	rec := do(h, "POST", "/list?action=save", url.Values{"editor": {string(raw)}})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	page, err := store.GetPage(context.Background(), "list")
	require.NoError(t, err)
	assert.Equal(t, "* one\n\n* two", page.Content)
}

func TestSaveHTML(t *testing.T) {
	_, store, h := newTestServer(t)
	rec := do(h, "POST", "/html?action=save", url.Values{"html": {"<p>a <strong>b</strong></p><h2>c</h2>"}})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	page, err := store.GetPage(context.Background(), "html")
	require.NoError(t, err)
	assert.Equal(t, "a **b**\n\n## c", page.Content)
}

func TestSaveDropsEmptyTextblocks(t *testing.T) {
	_, store, h := newTestServer(t)
	save := func(field, value, expected string) {
		t.Helper()
		rec := do(h, "POST", "/blank?action=save", url.Values{field: {value}})
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		page, err := store.GetPage(context.Background(), "blank")
		require.NoError(t, err)
		assert.Equal(t, expected, page.Content)
	}

	// the paragraph a new line leaves behind
	save("editor", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"a"}]},{"type":"paragraph"}]}`, "a")
	save("html", "<p>a</p><p></p>", "a")
	save("html", "<h1></h1><p>a</p>", "a")
	save("html", "<ul><li><p>a</p></li><li><p></p></li></ul>", "* a")

	// an editor with nothing in it saves an empty page
	save("html", "<p></p>", "")
	rec := do(h, "GET", "/blank", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaveRejectsInvalidDocuments(t *testing.T) {
	_, store, h := newTestServer(t)

	// an empty list
	raw, err := json.Marshal(builder.Doc(builder.Ul()))
	require.NoError(t, err)
	rec := do(h, "POST", "/bad?action=save", url.Values{"docmodel": {string(raw)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bullet_list")
	assert.False(t, store.PageExists(context.Background(), "bad"))

	// an unknown kind
	rec = do(h, "POST", "/bad?action=save", url.Values{"docmodel": {`{"kind":"document","children":[{"kind":"unicorn"}]}`}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown kind")

	// a block among inline content
	raw, err = json.Marshal(builder.Doc(builder.P(builder.Ul(builder.Li(builder.P("x"))))))
	require.NoError(t, err)
	rec = do(h, "POST", "/bad?action=save", url.Values{"docmodel": {string(raw)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bullet_list: invalid structure: not allowed in paragraph")

	// broken JSON
	rec = do(h, "POST", "/bad?action=save", url.Values{"editor": {`{"type":`}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// nothing to save
	rec = do(h, "POST", "/bad?action=save", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// saving needs a POST
	rec = do(h, "GET", "/bad?action=save", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEdit(t *testing.T) {
	_, store, h := newTestServer(t)
	require.NoError(t, store.SavePage(context.Background(), "start", "Hello *world*"))

	rec := do(h, "GET", "/start?action=edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"kind":"document"`)
	assert.Contains(t, body, `"type":"doc"`)
	assert.Contains(t, body, `"nodes":[["doc"`)
	assert.Contains(t, body, `action="/start?action=save"`)

	// new pages get an empty editor
	rec = do(h, "GET", "/fresh?action=edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc: null")
}

func TestAPI(t *testing.T) {
	_, store, h := newTestServer(t)
	require.NoError(t, store.SavePage(context.Background(), "b", "x"))
	require.NoError(t, store.SavePage(context.Background(), "a:c", "y"))

	rec := do(h, "GET", "/api/pages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pages []pageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "a:c", pages[0].Path)
	assert.Equal(t, "c", pages[0].Title)

	rec = do(h, "GET", "/api/schema", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var spec map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Contains(t, spec, "nodes")
	assert.Contains(t, spec, "marks")

	rec = do(h, "GET", "/api/kinds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var kinds kindsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kinds))
	assert.Contains(t, kinds.Nodes, "pseudo_paragraph")
	assert.Equal(t, []string{"emph", "strong"}, kinds.Marks)
	assert.Empty(t, kinds.Check)
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, h := newTestServer(t)
	do(h, "POST", "/x?action=save", url.Values{"html": {"<p>x</p>"}})

	rec := do(h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wysiwym_page_saves_total{outcome="ok",source="html"} 1`)
}

func TestSanitize(t *testing.T) {
	s, _, _ := newTestServer(t)
	assert.Equal(t, `<p data-pseudo="true">a</p><ol start="3"><li>b</li></ol>`,
		s.policy.Sanitize(`<p data-pseudo="true" onclick="x()">a</p><script>alert(1)</script><ol start="3"><li>b</li></ol>`))
}
