package ephemeral

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable is returned by a MemoryStore switched offline.
var ErrUnavailable = errors.New("ephemeral: store unavailable")

// MemoryStore is an in-process Store for single-node runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]string
	offline bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// SetOffline makes every call fail with ErrUnavailable.
func (s *MemoryStore) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return "", ErrUnavailable
	}
	v, ok := s.data[key]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) SetMany(_ context.Context, kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	for k, v := range kv {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) SetManyNX(_ context.Context, kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	for k, v := range kv {
		if _, ok := s.data[k]; !ok {
			s.data[k] = v
		}
	}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return ErrUnavailable
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offline {
		return ErrUnavailable
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
