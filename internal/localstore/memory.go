package localstore

import (
	"context"
	"sync"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
)

type memoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns an in-process Store. Used when no DB_DSN is configured
// and by tests; state does not survive a restart.
func NewMemory() Store {
	return &memoryStore{values: make(map[string][]byte)}
}

func memKey(scope, key string) string {
	return scope + "\x00" + key
}

func (s *memoryStore) Get(_ context.Context, scope, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[memKey(scope, key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *memoryStore) Put(_ context.Context, scope, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.values[memKey(scope, key)] = v
	return nil
}

func (s *memoryStore) Delete(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, memKey(scope, key))
	return nil
}
