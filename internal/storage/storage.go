package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmelnik/chatkeeper/internal/models"
)

// Collection keys. Absence of either record is a valid initial state.
const (
	KeyHumanChats = "humanChats"
	KeyAIChats    = "aiChats"
)

// Store persists chat collections as encoded blobs keyed by collection name.
// Load returns (nil, nil) when the collection has never been saved.
// Implementations must be safe for concurrent use; they carry no concurrency
// control beyond protecting their own medium.
type Store interface {
	Load(ctx context.Context, key string) (models.Collection, error)
	Save(ctx context.Context, key string, chats models.Collection) error
	Close() error
}

func encode(chats models.Collection) ([]byte, error) {
	data, err := json.Marshal(chats)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return data, nil
}

func decode(data []byte) (models.Collection, error) {
	var chats models.Collection
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if chats == nil {
		chats = models.Collection{}
	}
	return chats, nil
}
