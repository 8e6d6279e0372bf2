package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/models"
)

// FileStore persists each collection as a JSON file under a data directory.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure data dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(ctx context.Context, key string) (models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}

	chats, err := decode(data)
	if err != nil {
		// Malformed data on disk is recovered here: report the collection as
		// absent so the caller falls back to its seed state.
		s.logger.Warn("malformed collection blob, treating as absent",
			zap.String("key", key),
			zap.Error(err))
		return nil, nil
	}
	return chats, nil
}

func (s *FileStore) Save(ctx context.Context, key string, chats models.Collection) error {
	data, err := encode(chats)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
