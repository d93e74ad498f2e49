package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage keeps each page in a .txt file under RootPath/pages.
type FileStorage struct {
	RootPath string
}

// NewFileStorage returns a storage rooted at root.
func NewFileStorage(root string) *FileStorage {
	return &FileStorage{RootPath: root}
}

func (s *FileStorage) pagesDir() string {
	return filepath.Join(s.RootPath, "pages")
}

func (s *FileStorage) filePath(path string) (string, string, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(s.pagesDir(), filepath.FromSlash(strings.ReplaceAll(clean, ":", "/"))+".txt")
	rel, err := filepath.Rel(s.pagesDir(), full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", ErrInvalidPath
	}
	return clean, full, nil
}

// PageExists checks if a page exists.
func (s *FileStorage) PageExists(_ context.Context, path string) bool {
	_, full, err := s.filePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// GetPage retrieves a page by path.
func (s *FileStorage) GetPage(_ context.Context, path string) (*Page, error) {
	clean, full, err := s.filePath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("read page %s: %w", clean, err)
	}
	stat, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	return &Page{
		Path:     clean,
		Title:    Title(clean),
		Content:  string(content),
		Created:  stat.ModTime(),
		Modified: stat.ModTime(),
	}, nil
}

// SavePage creates or updates a page.
func (s *FileStorage) SavePage(_ context.Context, path, content string) error {
	clean, full, err := s.filePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("save page %s: %w", clean, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save page %s: %w", clean, err)
	}
	return nil
}

// ListPages lists all pages, sorted by path.
func (s *FileStorage) ListPages(_ context.Context) ([]*Page, error) {
	dir := s.pagesDir()
	var pages []*Page
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		wikiPath := strings.ReplaceAll(filepath.ToSlash(strings.TrimSuffix(rel, ".txt")), "/", ":")
		info, err := d.Info()
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		pages = append(pages, &Page{
			Path:     wikiPath,
			Title:    Title(wikiPath),
			Content:  string(content),
			Created:  info.ModTime(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	sortPages(pages)
	return pages, nil
}
