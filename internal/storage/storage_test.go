package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStorageContract(t *testing.T, s Storage) {
	ctx := context.Background()

	// missing pages
	assert.False(t, s.PageExists(ctx, "start"))
	_, err := s.GetPage(ctx, "start")
	assert.ErrorIs(t, err, ErrPageNotFound)
	pages, err := s.ListPages(ctx)
	require.NoError(t, err)
	assert.Empty(t, pages)

	// save and load
	require.NoError(t, s.SavePage(ctx, "start", "# Hello"))
	require.NoError(t, s.SavePage(ctx, "wiki:syntax", "*em*"))
	assert.True(t, s.PageExists(ctx, "start"))
	assert.True(t, s.PageExists(ctx, ""))

	page, err := s.GetPage(ctx, "/start/")
	require.NoError(t, err)
	assert.Equal(t, "start", page.Path)
	assert.Equal(t, "# Hello", page.Content)

	// slashes are namespace separators
	page, err = s.GetPage(ctx, "wiki/syntax")
	require.NoError(t, err)
	assert.Equal(t, "wiki:syntax", page.Path)
	assert.Equal(t, "syntax", page.Title)

	// overwrite
	require.NoError(t, s.SavePage(ctx, "start", "# Bye"))
	page, err = s.GetPage(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, "# Bye", page.Content)

	pages, err = s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "start", pages[0].Path)
	assert.Equal(t, "wiki:syntax", pages[1].Path)

	// traversal
	assert.ErrorIs(t, s.SavePage(ctx, "../etc/passwd", "x"), ErrInvalidPath)
	_, err = s.GetPage(ctx, "wiki:..:..:x")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.False(t, s.PageExists(ctx, ".."))
}

func TestFileStorage(t *testing.T) {
	root := t.TempDir()
	runStorageContract(t, NewFileStorage(root))

	_, err := os.Stat(filepath.Join(root, "pages", "wiki", "syntax.txt"))
	assert.NoError(t, err)
}

func TestRedisStorage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := NewRedisStorageFromClient(client, WithPrefix("test:"))
	runStorageContract(t, s)

	assert.True(t, mr.Exists("test:start"))
	page, err := s.GetPage(context.Background(), "start")
	require.NoError(t, err)
	assert.False(t, page.Created.IsZero())
	assert.False(t, page.Modified.Before(page.Created))
	require.NoError(t, s.Close())
}

func TestCleanPath(t *testing.T) {
	for in, out := range map[string]string{
		"":          "start",
		"/":         "start",
		"a/b":       "a:b",
		":a:b:":     "a:b",
		"namespace": "namespace",
	} {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, out, got)
	}
	for _, in := range []string{"..", "a/../b", "a::b", "a\\b"} {
		_, err := CleanPath(in)
		assert.ErrorIs(t, err, ErrInvalidPath, in)
	}
}
