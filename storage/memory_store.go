package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps blobs in process memory. Used by tests and the "memory" driver.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{store: s, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, staged: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err // staged writes are dropped
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, value := range tx.staged {
		if value == nil {
			delete(s.data, key)
			continue
		}
		s.data[key] = value
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	store    *MemoryStore
	staged   map[string][]byte // nil value marks a delete
	readOnly bool
}

func (tx *memoryTx) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := tx.staged[key]; ok {
		if value == nil {
			return nil, ErrKeyNotFound
		}
		return cloneBytes(value), nil
	}
	value, ok := tx.store.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return cloneBytes(value), nil
}

func (tx *memoryTx) Set(ctx context.Context, key string, value []byte) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	if value == nil {
		value = []byte{}
	}
	tx.staged[key] = cloneBytes(value)
	return nil
}

func (tx *memoryTx) Delete(ctx context.Context, key string) error {
	if tx.readOnly {
		return ErrReadOnlyTx
	}
	tx.staged[key] = nil
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
