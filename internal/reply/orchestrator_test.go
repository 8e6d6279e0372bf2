package reply

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/chatstore"
	"github.com/dmelnik/chatkeeper/internal/models"
	"github.com/dmelnik/chatkeeper/internal/storage"
)

type fakeGenerator struct {
	reply      string
	err        error
	calls      int
	lastPrompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fakeCache struct {
	invalidated []string
}

func (c *fakeCache) InvalidateChat(kind models.ChatKind, id int64) {
	c.invalidated = append(c.invalidated, fmt.Sprintf("%s/%d", kind, id))
}

func newTestOrchestrator(t *testing.T, gen *fakeGenerator, cache Cache) (*Orchestrator, *chatstore.Store) {
	t.Helper()

	store := chatstore.New(storage.NewMemoryStore(), zap.NewNop())
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize store: %v", err)
	}

	o := New(store, gen, cache, zap.NewNop())
	// Deterministic clock stepping 2ms per call so message ids never collide.
	base := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	calls := 0
	o.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 2 * time.Millisecond)
	}
	return o, store
}

func TestSendMessageAppendsUserAndReply(t *testing.T) {
	gen := &fakeGenerator{reply: "hello"}
	o, store := newTestOrchestrator(t, gen, nil)

	userMsg, replyMsg, err := o.SendMessage(context.Background(), models.AIChatBaseID, models.KindAI, "hi")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if replyMsg == nil {
		t.Fatalf("expected a reply message")
	}
	if replyMsg.ID == userMsg.ID {
		t.Fatalf("reply id must differ from user message id")
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one generation call, got %d", gen.calls)
	}
	if gen.lastPrompt != "hi" {
		t.Fatalf("generator received %q, want the user content", gen.lastPrompt)
	}

	chat, _ := store.GetChat(models.AIChatBaseID, models.KindAI)
	if len(chat.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(chat.Messages))
	}
	if chat.Messages[0].Type != models.MessageTypeUser || chat.Messages[0].Content != "hi" {
		t.Fatalf("first appended message should be the user message: %+v", chat.Messages[0])
	}
	if chat.Messages[1].Type != models.MessageTypeAI || chat.Messages[1].Content != "hello" {
		t.Fatalf("second appended message should be the reply: %+v", chat.Messages[1])
	}
}

func TestSendMessageGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("model overloaded")}
	o, store := newTestOrchestrator(t, gen, nil)

	userMsg, replyMsg, err := o.SendMessage(context.Background(), models.AIChatBaseID, models.KindAI, "hi")
	if err == nil {
		t.Fatalf("expected propagated generation failure")
	}
	if replyMsg != nil {
		t.Fatalf("no reply should be appended on failure")
	}
	if userMsg == nil {
		t.Fatalf("user message should be returned even on failure")
	}

	chat, _ := store.GetChat(models.AIChatBaseID, models.KindAI)
	if len(chat.Messages) != 1 || chat.Messages[0].Type != models.MessageTypeUser {
		t.Fatalf("chat should contain only the user message, got %+v", chat.Messages)
	}
	if gen.calls != 1 {
		t.Fatalf("no retry allowed: got %d generation calls", gen.calls)
	}
}

func TestSendMessageHumanChatSkipsGeneration(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	o, store := newTestOrchestrator(t, gen, nil)

	userMsg, replyMsg, err := o.SendMessage(context.Background(), 1, models.KindHuman, "see you soon")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if replyMsg != nil {
		t.Fatalf("human chats never get generated replies")
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called for human chats")
	}

	chat, _ := store.GetChat(1, models.KindHuman)
	last := chat.Messages[len(chat.Messages)-1]
	if last.ID != userMsg.ID || last.Content != "see you soon" {
		t.Fatalf("user message not appended: %+v", last)
	}
}

func TestSendMessageInvalidatesCache(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	cache := &fakeCache{}
	o, _ := newTestOrchestrator(t, gen, cache)

	if _, _, err := o.SendMessage(context.Background(), models.AIChatBaseID, models.KindAI, "hi"); err != nil {
		t.Fatalf("send message: %v", err)
	}
	want := fmt.Sprintf("ai/%d", models.AIChatBaseID)
	if len(cache.invalidated) != 1 || cache.invalidated[0] != want {
		t.Fatalf("expected invalidation %q, got %v", want, cache.invalidated)
	}

	// Failure path invalidates too: the user message still changed the chat.
	gen.err = fmt.Errorf("boom")
	if _, _, err := o.SendMessage(context.Background(), models.AIChatBaseID, models.KindAI, "again"); err == nil {
		t.Fatalf("expected failure")
	}
	if len(cache.invalidated) != 2 {
		t.Fatalf("expected invalidation on failure path, got %v", cache.invalidated)
	}
}
