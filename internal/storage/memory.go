package storage

import (
	"context"
	"sync"

	"github.com/dmelnik/chatkeeper/internal/models"
)

// MemoryStore keeps encoded collection blobs in process memory. Used by tests
// and the in-memory configuration; state is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (models.Collection, error) {
	s.mu.RLock()
	data, exists := s.blobs[key]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	return decode(data)
}

func (s *MemoryStore) Save(ctx context.Context, key string, chats models.Collection) error {
	data, err := encode(chats)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.blobs[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
