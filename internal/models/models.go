package models

import "strconv"

// ChatKind selects one of the two disjoint chat collections. A chat's kind is
// determined by the collection it lives in, not by a field on the record.
type ChatKind string

const (
	KindHuman ChatKind = "human"
	KindAI    ChatKind = "ai"
)

// Message author types.
const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// AIChatBaseID is the reserved base for assistant chat ids. Human chat ids come
// from seed data and never reach this range.
const AIChatBaseID int64 = 10000

const (
	DefaultAIChatName    = "AI Assistant"
	PlaceholderHumanName = "Unknown User"
	DefaultAIAvatar      = "/assets/avatars/robot.jpg"
	PlaceholderAvatar    = "/assets/avatars/cat.jpg"
)

// Message is a single chat message. Immutable once appended; Time is the
// display-formatted timestamp the UI shows, not a parseable datetime.
type Message struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

// Chat holds a contact and its message sequence in insertion (chronological) order.
type Chat struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Messages []Message `json:"messages"`
}

// LastMessage returns the most recent message, or false for an empty chat.
func (c *Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Clone deep-copies a chat, including its message sequence.
func (c *Chat) Clone() *Chat {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return &Chat{
		ID:       c.ID,
		Name:     c.Name,
		Avatar:   c.Avatar,
		Messages: msgs,
	}
}

// Collection maps chat ids, in their stored text form, to chats.
type Collection map[string]*Chat

// Clone deep-copies the collection so snapshots never alias live store state.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for key, chat := range c {
		out[key] = chat.Clone()
	}
	return out
}

// ChatKey converts a chat id to its stored text form.
func ChatKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseKind validates a chat kind coming from an external caller.
func ParseKind(s string) (ChatKind, bool) {
	switch ChatKind(s) {
	case KindHuman:
		return KindHuman, true
	case KindAI:
		return KindAI, true
	}
	return "", false
}
