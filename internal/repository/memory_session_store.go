package repository

import (
	"context"
	"sync"
)

// MemorySessionStore keeps values in process memory.  It backs tests and
// single-instance deployments without Redis or MySQL.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]map[string]string)}
}

func (s *MemorySessionStore) Get(_ context.Context, sid, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[sid][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemorySessionStore) Set(_ context.Context, sid, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, ok := s.data[sid]
	if !ok {
		vals = make(map[string]string)
		s.data[sid] = vals
	}
	vals[key] = value
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vals, ok := s.data[sid]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(vals, k)
	}
	if len(vals) == 0 {
		delete(s.data, sid)
	}
	return nil
}
