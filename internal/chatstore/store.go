package chatstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/models"
	"github.com/dmelnik/chatkeeper/internal/storage"
)

// Store owns the two in-memory chat collections and the assistant id allocator,
// and is the sole writer to the persistence backend. Persistence is
// write-through and best-effort: a failed save is logged, the in-memory
// mutation stands.
type Store struct {
	mu       sync.RWMutex
	human    models.Collection
	ai       models.Collection
	nextAIID int64

	backend storage.Store
	logger  *zap.Logger
}

func New(backend storage.Store, logger *zap.Logger) *Store {
	return &Store{
		human:   models.Collection{},
		ai:      models.Collection{},
		backend: backend,
		logger:  logger,
	}
}

// Initialize loads both collections, seeding whichever is absent, and writes
// the normalized state back even when nothing changed.
func (s *Store) Initialize(ctx context.Context) error {
	human, err := s.backend.Load(ctx, storage.KeyHumanChats)
	if err != nil {
		s.logger.Warn("failed to load human chats, falling back to seed", zap.Error(err))
		human = nil
	}
	if human == nil {
		human, err = seedHumanChats()
		if err != nil {
			return fmt.Errorf("seed human chats: %w", err)
		}
	}

	ai, err := s.backend.Load(ctx, storage.KeyAIChats)
	if err != nil {
		s.logger.Warn("failed to load ai chats, falling back to default", zap.Error(err))
		ai = nil
	}

	s.mu.Lock()
	s.human = human
	if ai == nil {
		// Start with one default assistant chat at the base id.
		s.ai = models.Collection{
			models.ChatKey(models.AIChatBaseID): {
				ID:       models.AIChatBaseID,
				Name:     models.DefaultAIChatName,
				Avatar:   models.DefaultAIAvatar,
				Messages: []models.Message{},
			},
		}
		s.nextAIID = models.AIChatBaseID + 1
	} else {
		s.ai = ai
		maxID := models.AIChatBaseID - 1
		for key := range ai {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				s.logger.Warn("ignoring non-numeric chat key", zap.String("key", key))
				continue
			}
			if id > maxID {
				maxID = id
			}
		}
		s.nextAIID = maxID + 1
	}
	aiCount := len(s.ai)
	s.mu.Unlock()

	s.persist(ctx)

	s.logger.Info("chat store initialized",
		zap.Int("human_chats", len(human)),
		zap.Int("ai_chats", aiCount))
	return nil
}

// GetChat looks up a chat by id within one kind, returning a snapshot copy.
// Absence is not an error.
func (s *Store) GetChat(id int64, kind models.ChatKind) (*models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, exists := s.collection(kind)[models.ChatKey(id)]
	if !exists {
		return nil, false
	}
	return chat.Clone(), true
}

// GetChats returns a snapshot copy of the collection for a kind. Readers never
// alias live state, so concurrent appends cannot race with iteration; all
// mutation goes through the store.
func (s *Store) GetChats(kind models.ChatKind) models.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collection(kind).Clone()
}

// CreateAssistantChat allocates the next assistant id and inserts a new empty
// chat. When name is empty a default of the form "AI Assistant <id>" is used.
func (s *Store) CreateAssistantChat(ctx context.Context, name string) *models.Chat {
	s.mu.Lock()
	// A corrupted allocator self-heals by clamping back to the base.
	if s.nextAIID < models.AIChatBaseID {
		s.nextAIID = models.AIChatBaseID
	}
	id := s.nextAIID
	s.nextAIID++

	if name == "" {
		name = fmt.Sprintf("%s %d", models.DefaultAIChatName, id)
	}
	chat := &models.Chat{
		ID:       id,
		Name:     name,
		Avatar:   models.DefaultAIAvatar,
		Messages: []models.Message{},
	}
	s.ai[models.ChatKey(id)] = chat
	s.mu.Unlock()

	s.persist(ctx)

	s.logger.Info("created assistant chat", zap.Int64("chat_id", id), zap.String("name", name))
	return chat
}

// AddMessage appends a message to a chat, creating a placeholder chat first if
// none exists at that id. A message whose id already exists in the chat is a
// silent no-op with no persistence write. This is the single mutation path for
// message appends.
func (s *Store) AddMessage(ctx context.Context, chatID int64, kind models.ChatKind, msg models.Message) {
	s.mu.Lock()
	coll := s.collection(kind)
	key := models.ChatKey(chatID)

	chat, exists := coll[key]
	if !exists {
		name := models.PlaceholderHumanName
		if kind == models.KindAI {
			name = models.DefaultAIChatName
		}
		chat = &models.Chat{
			ID:       chatID,
			Name:     name,
			Avatar:   models.PlaceholderAvatar,
			Messages: []models.Message{},
		}
		coll[key] = chat
		s.logger.Info("created placeholder chat",
			zap.Int64("chat_id", chatID),
			zap.String("kind", string(kind)))
	}

	for _, existing := range chat.Messages {
		if existing.ID == msg.ID {
			s.mu.Unlock()
			return
		}
	}
	chat.Messages = append(chat.Messages, msg)
	s.mu.Unlock()

	s.persist(ctx)
}

// collection must be called with the lock held.
func (s *Store) collection(kind models.ChatKind) models.Collection {
	if kind == models.KindAI {
		return s.ai
	}
	return s.human
}

// persist writes both collections through to the backend. Failures are logged
// and do not roll back the in-memory state; the persisted blob converges on the
// next successful save.
func (s *Store) persist(ctx context.Context) {
	s.mu.RLock()
	human := s.human.Clone()
	ai := s.ai.Clone()
	s.mu.RUnlock()

	if err := s.backend.Save(ctx, storage.KeyHumanChats, human); err != nil {
		s.logger.Error("failed to persist human chats", zap.Error(err))
	}
	if err := s.backend.Save(ctx, storage.KeyAIChats, ai); err != nil {
		s.logger.Error("failed to persist ai chats", zap.Error(err))
	}
}
