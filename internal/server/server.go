// Package server serves wiki pages stored as Markdown, edited through the
// editor tree of the page's document.
package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/editor"
	"github.com/shodgson/wysiwym/internal/logging"
	"github.com/shodgson/wysiwym/internal/metrics"
	"github.com/shodgson/wysiwym/internal/storage"
	"github.com/shodgson/wysiwym/markdown"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	conv        *editor.Converter
	store       storage.Storage
	parser      *markdown.Parser
	logger      *slog.Logger
	metrics     *metrics.Metrics
	metricsPath string
	policy      *bluemonday.Policy
	templates   *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records conversions and saves in m and serves them at path.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// New creates a server converting pages with conv.
func New(conv *editor.Converter, store storage.Storage, opts ...Option) *Server {
	s := &Server{
		conv:      conv,
		store:     store,
		parser:    markdown.DefaultParser,
		logger:    logging.NewNop(),
		policy:    newPolicy(),
		templates: template.Must(template.New("base").Parse(baseTemplate)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newPolicy allows the markup produced by the DOM serializer.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("data-pseudo").Matching(bluemonday.Paragraph).OnElements("p")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	return p
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	if s.metrics != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metrics.Handler())
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)
		r.Get("/kinds", s.handleKinds)
		r.Get("/pages", s.handlePages)
	})
	r.Get("/*", s.handlePage)
	r.Post("/*", s.handlePage)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	path, err := storage.CleanPath(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch r.URL.Query().Get("action") {
	case "edit":
		s.handleEdit(w, r, path)
	case "save":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleSave(w, r, path)
	default:
		s.handleView(w, r, path)
	}
}

type pageData struct {
	Title       string
	Path        string
	Template    string
	Content     template.HTML
	Markdown    string
	DocJSON     template.JS
	EditorJSON  template.JS
	SchemaJSON  template.JS
	RenderError string
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, path string) {
	page, err := s.store.GetPage(r.Context(), path)
	if errors.Is(err, storage.ErrPageNotFound) {
		http.Redirect(w, r, "/"+path+"?action=edit", http.StatusFound)
		return
	}
	if err != nil {
		s.logger.Error("load page", "path", path, "error", err)
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	}

	data := pageData{Title: page.Title, Path: path, Template: "view"}
	if page.Content != "" {
		rendered, err := s.renderMarkdown(page.Content)
		if err != nil {
			s.logger.Warn("render page", "path", path, "error", err)
			data.RenderError = err.Error()
		} else {
			data.Content = template.HTML(rendered)
		}
	}
	s.render(w, data)
}

// renderMarkdown goes through the document and the editor tree, so pages
// look the same as in the editing surface.
func (s *Server) renderMarkdown(content string) (string, error) {
	doc, err := s.parseMarkdown(content)
	if err != nil {
		return "", err
	}
	if len(doc.Children) == 0 {
		return "", nil
	}
	tree, err := s.toEditor(doc)
	if err != nil {
		return "", err
	}
	out, err := s.conv.RenderHTML(tree)
	if err != nil {
		return "", err
	}
	return s.policy.Sanitize(out), nil
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, path string) {
	data := pageData{Title: "Edit: " + storage.Title(path), Path: path, Template: "edit"}

	schemaJSON, err := json.Marshal(s.conv.Schema().Spec)
	if err != nil {
		s.logger.Error("encode schema", "error", err)
		http.Error(w, "Failed to encode schema", http.StatusInternalServerError)
		return
	}
	data.SchemaJSON = template.JS(schemaJSON)

	page, err := s.store.GetPage(r.Context(), path)
	switch {
	case errors.Is(err, storage.ErrPageNotFound):
	case err != nil:
		s.logger.Error("load page", "path", path, "error", err)
		http.Error(w, "Failed to load page", http.StatusInternalServerError)
		return
	default:
		data.Markdown = page.Content
		if err := s.fillEditorData(&data, page.Content); err != nil {
			s.logger.Warn("prepare editor", "path", path, "error", err)
			data.RenderError = err.Error()
		}
	}
	s.render(w, data)
}

func (s *Server) fillEditorData(data *pageData, content string) error {
	doc, err := s.parseMarkdown(content)
	if err != nil {
		return err
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	data.DocJSON = template.JS(docJSON)
	if len(doc.Children) == 0 {
		return nil
	}
	tree, err := s.toEditor(doc)
	if err != nil {
		return err
	}
	editorJSON, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	data.EditorJSON = template.JS(editorJSON)
	return nil
}

// Save form fields, in order of preference.
const (
	fieldDocModel = "docmodel"
	fieldEditor   = "editor"
	fieldHTML     = "html"
)

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, path string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	source, doc, err := s.documentFromForm(r)
	if err == nil {
		doc, err = s.conv.Normalize(doc)
	}
	if err != nil {
		s.metrics.ObserveSave(source, err)
		s.logger.Info("rejected page", "path", path, "source", source, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// A document emptied by normalization saves an empty page.
	var md string
	if len(doc.Children) > 0 {
		start := time.Now()
		md, err = markdown.FromDoc(s.conv, doc)
		s.metrics.ObserveConversion(metrics.Markdown, start, err)
	}
	if err != nil {
		s.metrics.ObserveSave(source, err)
		s.logger.Info("rejected page", "path", path, "source", source, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.store.SavePage(r.Context(), path, md)
	s.metrics.ObserveSave(source, err)
	if err != nil {
		s.logger.Error("save page", "path", path, "error", err)
		http.Error(w, "Failed to save page", http.StatusInternalServerError)
		return
	}
	s.logger.Info("saved page", "path", path, "source", source)
	http.Redirect(w, r, "/"+path, http.StatusFound)
}

var errMissingContent = errors.New("missing docmodel, editor or html field")

func (s *Server) documentFromForm(r *http.Request) (string, docmodel.Node, error) {
	if raw := r.FormValue(fieldDocModel); raw != "" {
		doc, err := docmodel.Parse([]byte(raw))
		return fieldDocModel, doc, err
	}
	if raw := r.FormValue(fieldEditor); raw != "" {
		tree, err := s.conv.ParseEditorJSON([]byte(raw))
		if err != nil {
			return fieldEditor, docmodel.Node{}, err
		}
		doc, err := s.toDoc(tree)
		return fieldEditor, doc, err
	}
	if raw := r.FormValue(fieldHTML); raw != "" {
		tree, err := s.conv.ParseHTML(raw)
		if err != nil {
			return fieldHTML, docmodel.Node{}, err
		}
		doc, err := s.toDoc(tree)
		return fieldHTML, doc, err
	}
	return "none", docmodel.Node{}, errMissingContent
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.Execute(w, data); err != nil {
		s.logger.Error("render template", "template", data.Template, "error", err)
	}
}
