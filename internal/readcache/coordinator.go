package readcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dmelnik/chatkeeper/internal/models"
)

// Source is the read side of the chat store.
type Source interface {
	GetChat(id int64, kind models.ChatKind) (*models.Chat, bool)
	GetChats(kind models.ChatKind) models.Collection
}

// Coordinator caches list and detail reads under independent keys. Concurrent
// readers of one key share a single underlying fetch; a mutation invalidates
// the affected detail key and that kind's list key, forcing the next read to
// re-fetch from the source.
type Coordinator struct {
	source Source
	group  singleflight.Group

	mu      sync.RWMutex
	entries map[string]any
	// gens moves forward on every invalidation so a fetch that was in flight
	// when the invalidation landed cannot re-cache its pre-mutation result.
	gens map[string]uint64
}

func New(source Source) *Coordinator {
	return &Coordinator{
		source:  source,
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

// detailEntry caches a detail read, including the not-found case.
type detailEntry struct {
	chat  *models.Chat
	found bool
}

func listKey(kind models.ChatKind) string {
	return "list/" + string(kind)
}

func detailKey(kind models.ChatKind, id int64) string {
	return fmt.Sprintf("detail/%s/%d", kind, id)
}

// Chats returns the cached collection for a kind, fetching it at most once
// until the list key is invalidated.
func (c *Coordinator) Chats(ctx context.Context, kind models.ChatKind) (models.Collection, error) {
	key := listKey(kind)
	if cached, exists := c.lookup(key); exists {
		return cached.(models.Collection), nil
	}

	fetched, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		coll := c.source.GetChats(kind)
		c.putIfCurrent(key, gen, coll)
		return coll, nil
	})
	if err != nil {
		return nil, err
	}
	return fetched.(models.Collection), nil
}

// Chat returns the cached detail for one chat. A missing chat is an explicit
// not-found result, cached like any other.
func (c *Coordinator) Chat(ctx context.Context, id int64, kind models.ChatKind) (*models.Chat, bool, error) {
	key := detailKey(kind, id)
	if cached, exists := c.lookup(key); exists {
		entry := cached.(detailEntry)
		return entry.chat, entry.found, nil
	}

	fetched, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		chat, found := c.source.GetChat(id, kind)
		entry := detailEntry{chat: chat, found: found}
		c.putIfCurrent(key, gen, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	entry := fetched.(detailEntry)
	return entry.chat, entry.found, nil
}

// InvalidateChat drops the detail key for (kind, id) and the list key for that
// kind. The two are otherwise independent entries.
func (c *Coordinator) InvalidateChat(kind models.ChatKind, id int64) {
	c.mu.Lock()
	c.drop(detailKey(kind, id))
	c.drop(listKey(kind))
	c.mu.Unlock()
}

// InvalidateList drops only the list key for a kind.
func (c *Coordinator) InvalidateList(kind models.ChatKind) {
	c.mu.Lock()
	c.drop(listKey(kind))
	c.mu.Unlock()
}

// drop must be called with the lock held.
func (c *Coordinator) drop(key string) {
	delete(c.entries, key)
	c.gens[key]++
}

func (c *Coordinator) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.entries[key]
	return cached, exists
}

func (c *Coordinator) generation(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.gens[key]
}

// putIfCurrent caches a fetched value unless the key was invalidated after the
// fetch began.
func (c *Coordinator) putIfCurrent(key string, gen uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return
	}
	c.entries[key] = value
}
