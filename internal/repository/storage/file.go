package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// FileStore is a JSON file-backed key/value store. The whole file is
// rewritten after every change.
type FileStore struct {
	mu    sync.RWMutex
	items map[string]string
	path  string
}

// NewFileStore opens the store at path. A missing or empty file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		items: make(map[string]string),
		path:  path,
	}
	if err := s.loadFromFile(); err != nil {
		return nil, fmt.Errorf("load storage file %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) loadFromFile() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, &s.items)
}

// saveToFile must be called with mu held.
func (s *FileStore) saveToFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *FileStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return s.saveToFile()
}

func (s *FileStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return nil
	}
	delete(s.items, key)
	return s.saveToFile()
}

func (s *FileStore) Close() error { return nil }
