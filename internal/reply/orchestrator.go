package reply

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/chatstore"
	"github.com/dmelnik/chatkeeper/internal/generator"
	"github.com/dmelnik/chatkeeper/internal/models"
)

// Cache is notified after a chat's detail changes so stale reads are refreshed.
type Cache interface {
	InvalidateChat(kind models.ChatKind, id int64)
}

// Orchestrator implements the send-message operation: append the user message,
// and for assistant chats invoke the generation capability once and append its
// reply. The user message is appended and persisted before generation starts,
// so a generation failure never loses it.
type Orchestrator struct {
	store  *chatstore.Store
	gen    generator.Generator
	cache  Cache
	logger *zap.Logger
	now    func() time.Time
}

func New(store *chatstore.Store, gen generator.Generator, cache Cache, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		gen:    gen,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// SendMessage appends content as a user message to the chat. For an assistant
// chat it then calls the generator and appends the reply; the reply id is
// offset from the user message id so the two never collide. Concurrent sends to
// the same chat are allowed: replies append in completion order.
func (o *Orchestrator) SendMessage(ctx context.Context, chatID int64, kind models.ChatKind, content string) (*models.Message, *models.Message, error) {
	now := o.now()
	userMsg := models.Message{
		ID:      now.UnixMilli(),
		Content: content,
		Time:    now.Format("15:04"),
		Type:    models.MessageTypeUser,
	}
	o.store.AddMessage(ctx, chatID, kind, userMsg)

	if kind != models.KindAI {
		o.invalidate(kind, chatID)
		return &userMsg, nil, nil
	}

	text, err := o.gen.Generate(ctx, content)
	if err != nil {
		o.logger.Error("reply generation failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		// The user message stays; the failure propagates to the caller.
		o.invalidate(kind, chatID)
		return &userMsg, nil, fmt.Errorf("generate reply: %w", err)
	}

	replyMsg := models.Message{
		ID:      userMsg.ID + 1,
		Content: text,
		Time:    o.now().Format("15:04"),
		Type:    models.MessageTypeAI,
	}
	o.store.AddMessage(ctx, chatID, kind, replyMsg)
	o.invalidate(kind, chatID)

	return &userMsg, &replyMsg, nil
}

func (o *Orchestrator) invalidate(kind models.ChatKind, chatID int64) {
	if o.cache != nil {
		o.cache.InvalidateChat(kind, chatID)
	}
}
