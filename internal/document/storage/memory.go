package storage

import (
	"context"
	"sync"

	"tenantgate/pkg/platform/sentinel"
)

// InMemory keeps blobs in a map. Used by tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	contentType string
	data        []byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string]blob)}
}

func (s *InMemory) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[key] = blob{contentType: contentType, data: copied}
	return "memory://" + key, nil
}

func (s *InMemory) PresignedURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[key]; !ok {
		return "", sentinel.ErrNotFound
	}
	return "memory://" + key, nil
}

// Get returns a stored blob, for test assertions.
func (s *InMemory) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	copied := make([]byte, len(b.data))
	copy(copied, b.data)
	return copied, true
}
