package server

import (
	"time"

	"github.com/shodgson/wysiwym/docmodel"
	"github.com/shodgson/wysiwym/internal/metrics"
	"github.com/shodgson/wysiwym/model"
)

func (s *Server) parseMarkdown(content string) (docmodel.Node, error) {
	doc, err := s.parser.Parse([]byte(content))
	if err != nil {
		return docmodel.Node{}, err
	}
	return s.conv.Normalize(doc)
}

func (s *Server) toEditor(doc docmodel.Node) (*model.Node, error) {
	start := time.Now()
	tree, err := s.conv.ToEditorTree(doc)
	s.metrics.ObserveConversion(metrics.ToEditor, start, err)
	return tree, err
}

func (s *Server) toDoc(tree *model.Node) (docmodel.Node, error) {
	start := time.Now()
	doc, err := s.conv.ToDocTree(tree)
	s.metrics.ObserveConversion(metrics.ToDoc, start, err)
	return doc, err
}
