// File: store/store.go
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/lguibr/dflow/value"
)

// Store is the key/value backend behind the reader and writer actors.
// Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value stored under key; ok is false if there is none.
	Get(ctx context.Context, key string) (v value.Complete, ok bool, err error)
	// Put stores v under key, replacing any previous value.
	Put(ctx context.Context, key string, v value.Complete) error
	Close() error
}

// Open returns the store named by driver: "memory" or "sqlite".
func Open(driver string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemStore(), nil
	case "sqlite":
		return NewSQLStore()
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

// MemStore keeps values in a map.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]value.Complete
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]value.Complete)}
}

func (s *MemStore) Get(_ context.Context, key string) (value.Complete, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemStore) Put(_ context.Context, key string, v value.Complete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = v
	return nil
}

func (s *MemStore) Close() error { return nil }
