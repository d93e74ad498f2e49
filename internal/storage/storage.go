// Package storage keeps wiki pages as Markdown text.
package storage

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"time"
)

var (
	ErrPageNotFound = errors.New("page not found")
	ErrInvalidPath  = errors.New("invalid page path")
)

// DefaultPage is the page served for the empty path.
const DefaultPage = "start"

// Page is a stored wiki page.
type Page struct {
	Path     string
	Title    string
	Content  string
	Created  time.Time
	Modified time.Time
}

// Storage is a page backend.
type Storage interface {
	// GetPage retrieves a page by path.
	GetPage(ctx context.Context, path string) (*Page, error)
	// SavePage creates or updates a page.
	SavePage(ctx context.Context, path, content string) error
	// PageExists checks if a page exists.
	PageExists(ctx context.Context, path string) bool
	// ListPages lists all pages, sorted by path.
	ListPages(ctx context.Context) ([]*Page, error)
}

// CleanPath normalizes a wiki path. Namespaces are separated by colons, as
// in Dokuwiki. Paths escaping the wiki are rejected.
func CleanPath(p string) (string, error) {
	p = strings.Trim(strings.ReplaceAll(p, "/", ":"), ":")
	if p == "" {
		return DefaultPage, nil
	}
	parts := strings.Split(p, ":")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, "\\\x00") {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}

// Title is the last segment of a wiki path.
func Title(p string) string {
	return path.Base(strings.ReplaceAll(p, ":", "/"))
}

func sortPages(pages []*Page) {
	sort.Slice(pages, func(i, j int) bool { return pages[i].Path < pages[j].Path })
}
