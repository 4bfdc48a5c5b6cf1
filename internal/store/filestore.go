package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Compile-time assertion that FileStore satisfies the Store interface.
var _ Store = (*FileStore)(nil)

// FileStore is a [Store] that keeps one JSON file per key under a directory.
// It is the default backend: durable across restarts with no external
// dependency, matching the browser localStorage the front end used before.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir, creating the directory if
// it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load implements [Store.Load].
func (s *FileStore) Load(ctx context.Context, key string, dest any) error {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path(key))
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("store: read %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("store: decode %q: %w", key, err)
	}
	return nil
}

// Save implements [Store.Save]. The value is written to a temporary file and
// renamed into place so a crash mid-write never leaves a truncated entry.
func (s *FileStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename %q: %w", key, err)
	}
	return nil
}

// path maps key to a file name, escaping separators so keys cannot traverse
// outside the store directory.
func (s *FileStore) path(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}
