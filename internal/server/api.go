package server

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.conv.Schema().Spec)
}

type kindsResponse struct {
	Nodes []string `json:"nodes"`
	Marks []string `json:"marks"`
	Check string   `json:"check,omitempty"`
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	reg := s.conv.Registry()
	resp := kindsResponse{Nodes: []string{}, Marks: []string{}}
	for _, k := range reg.NodeKinds() {
		resp.Nodes = append(resp.Nodes, string(k))
	}
	for _, k := range reg.MarkKinds() {
		resp.Marks = append(resp.Marks, string(k))
	}
	if err := reg.Check(); err != nil {
		resp.Check = err.Error()
	}
	s.writeJSON(w, resp)
}

type pageSummary struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Modified time.Time `json:"modified"`
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.store.ListPages(r.Context())
	if err != nil {
		s.logger.Error("list pages", "error", err)
		http.Error(w, "Failed to list pages", http.StatusInternalServerError)
		return
	}
	out := make([]pageSummary, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageSummary{Path: p.Path, Title: p.Title, Modified: p.Modified})
	}
	s.writeJSON(w, out)
}
