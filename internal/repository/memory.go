package repository

import (
	"context"
	"sync"
)

type memEntry struct {
	value   []byte
	version int64
}

// MemoryStore is an in-process KV. It is the default backend for
// development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memEntry)}
}

// Get implements KV.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok {
		return nil, 0, ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, e.version, nil
}

// CompareAndSwap implements KV.
func (s *MemoryStore) CompareAndSwap(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if s.data[w.Key].version != w.ExpectedVersion {
			return ErrConcurrentModification
		}
	}

	for _, w := range writes {
		v := make([]byte, len(w.Value))
		copy(v, w.Value)
		s.data[w.Key] = memEntry{value: v, version: w.ExpectedVersion + 1}
	}
	return nil
}
