package storage

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStorage keeps each page in a hash, with a set of paths as index.
type RedisStorage struct {
	client *backend.Client
	prefix string
}

// Option configures a RedisStorage.
type Option func(*RedisStorage)

// WithPrefix sets the key prefix for pages.
func WithPrefix(prefix string) Option {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

// NewRedisStorage connects to the redis server at address.
func NewRedisStorage(address, password string, db int, opts ...Option) *RedisStorage {
	return NewRedisStorageFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStorageFromClient creates a storage from an existing client.
func NewRedisStorageFromClient(client *backend.Client, opts ...Option) *RedisStorage {
	s := &RedisStorage{client: client, prefix: "wysiwym:page:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) key(path string) string {
	return s.prefix + path
}

func (s *RedisStorage) indexKey() string {
	return s.prefix + "index"
}

// PageExists checks if a page exists.
func (s *RedisStorage) PageExists(ctx context.Context, path string) bool {
	clean, err := CleanPath(path)
	if err != nil {
		return false
	}
	n, err := s.client.Exists(ctx, s.key(clean)).Result()
	return err == nil && n > 0
}

// GetPage retrieves a page by path.
func (s *RedisStorage) GetPage(ctx context.Context, path string) (*Page, error) {
	clean, err := CleanPath(path)
	if err != nil {
		return nil, err
	}
	fields, err := s.client.HGetAll(ctx, s.key(clean)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrPageNotFound
	}
	return pageFromHash(clean, fields), nil
}

// SavePage creates or updates a page.
func (s *RedisStorage) SavePage(ctx context.Context, path, content string) error {
	clean, err := CleanPath(path)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	pipe := s.client.TxPipeline()
	pipe.HSetNX(ctx, s.key(clean), "created", now)
	pipe.HSet(ctx, s.key(clean), "content", content, "modified", now)
	pipe.SAdd(ctx, s.indexKey(), clean)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// ListPages lists all pages, sorted by path.
func (s *RedisStorage) ListPages(ctx context.Context) ([]*Page, error) {
	paths, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list from redis: %w", err)
	}
	pipe := s.client.Pipeline()
	cmds := make([]*backend.MapStringStringCmd, len(paths))
	for i, p := range paths {
		cmds[i] = pipe.HGetAll(ctx, s.key(p))
	}
	if len(paths) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to list from redis: %w", err)
		}
	}
	pages := make([]*Page, 0, len(paths))
	for i, p := range paths {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		pages = append(pages, pageFromHash(p, fields))
	}
	sortPages(pages)
	return pages, nil
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func pageFromHash(path string, fields map[string]string) *Page {
	created, _ := time.Parse(time.RFC3339Nano, fields["created"])
	modified, _ := time.Parse(time.RFC3339Nano, fields["modified"])
	return &Page{
		Path:     path,
		Title:    Title(path),
		Content:  fields["content"],
		Created:  created,
		Modified: modified,
	}
}
