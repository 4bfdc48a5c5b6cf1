package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is suitable for single-session use and testing.
// The zero value is ready to use.
type MemStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string][]byte),
	}
}

// Load implements [Store.Load].
func (s *MemStore) Load(ctx context.Context, key string, dest any) error {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("store: decode %q: %w", key, err)
	}
	return nil
}

// Save implements [Store.Save].
func (s *MemStore) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = raw
	return nil
}
