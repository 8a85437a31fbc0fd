package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by callers that want a
// throwaway installation. It counts writes so tests can assert that failed
// validations perform no store write.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	return s.Update(ctx, key, func(string, bool) (string, error) {
		return value, nil
	})
}

func (s *MemoryStore) Update(ctx context.Context, key string, fn func(current string, absent bool) (string, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[key]
	next, err := fn(current, !ok)
	if err != nil {
		return err
	}
	s.data[key] = next
	s.writes++
	return nil
}

// WriteCount reports how many successful writes the store has performed.
func (s *MemoryStore) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
