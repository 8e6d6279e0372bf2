package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/chatstore"
	"github.com/dmelnik/chatkeeper/internal/models"
	"github.com/dmelnik/chatkeeper/internal/ranking"
	"github.com/dmelnik/chatkeeper/internal/readcache"
	"github.com/dmelnik/chatkeeper/internal/reply"
)

type Server struct {
	store  *chatstore.Store
	cache  *readcache.Coordinator
	orch   *reply.Orchestrator
	logger *zap.Logger
}

func NewServer(store *chatstore.Store, cache *readcache.Coordinator, orch *reply.Orchestrator, logger *zap.Logger) http.Handler {
	s := &Server{store: store, cache: cache, orch: orch, logger: logger}
	mux := http.NewServeMux()

	// /chats            → GET: ranked chat list, POST: create assistant chat
	mux.HandleFunc("/chats", s.handleChats)

	// /chats/{id}          →  GET: chat detail
	// /chats/{id}/messages → POST: send message
	mux.HandleFunc("/chats/", s.handleChatWithID)

	return chainMiddlewares(mux, withRequestLogging(logger), withCORS)
}

type createChatRequest struct {
	Name string `json:"name,omitempty"`
}

type chatResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Avatar   string            `json:"avatar"`
	Messages []messageResponse `json:"messages"`
}

type messageResponse struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	UserMessage  messageResponse  `json:"user_message"`
	ReplyMessage *messageResponse `json:"reply_message,omitempty"`
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListChats(w, r)
	case http.MethodPost:
		s.handleCreateChat(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleChatWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/chats/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		badRequest(w, "invalid chat id")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetChat(w, r, id)
		return
	}

	if len(parts) == 2 && parts[1] == "messages" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSendMessage(w, r, id)
		return
	}

	http.NotFound(w, r)
}

// handleListChats returns ranked summaries for one kind, or both kinds
// combined when no kind is given.
func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	kinds := []models.ChatKind{models.KindHuman, models.KindAI}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, ok := models.ParseKind(raw)
		if !ok {
			badRequest(w, "kind must be \"human\" or \"ai\"")
			return
		}
		kinds = []models.ChatKind{kind}
	}

	var items []ranking.Summary
	for _, kind := range kinds {
		chats, err := s.cache.Chats(r.Context(), kind)
		if err != nil {
			internalError(w, err)
			return
		}
		items = append(items, ranking.Summarize(chats, kind)...)
	}
	ranking.SortByRecency(items)

	if items == nil {
		items = []ranking.Summary{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	chat := s.store.CreateAssistantChat(r.Context(), strings.TrimSpace(req.Name))
	// Drop the detail key too: a not-found read of this id may already be cached.
	s.cache.InvalidateChat(models.KindAI, chat.ID)

	writeJSON(w, http.StatusCreated, toChatResponse(chat))
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request, id int64) {
	kind, ok := parseKindParam(r)
	if !ok {
		badRequest(w, "kind must be \"human\" or \"ai\"")
		return
	}

	chat, found, err := s.cache.Chat(r.Context(), id, kind)
	if err != nil {
		internalError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chat not found"})
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(chat))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, id int64) {
	kind, ok := parseKindParam(r)
	if !ok {
		badRequest(w, "kind must be \"human\" or \"ai\"")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(w, "content is required")
		return
	}

	userMsg, replyMsg, err := s.orch.SendMessage(r.Context(), id, kind, req.Content)
	if err != nil {
		// The user message is already appended and persisted; report the
		// generation failure without discarding it.
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":        "reply generation failed",
			"user_message": toMessageResponse(*userMsg),
		})
		return
	}

	resp := sendMessageResponse{UserMessage: toMessageResponse(*userMsg)}
	if replyMsg != nil {
		m := toMessageResponse(*replyMsg)
		resp.ReplyMessage = &m
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseKindParam(r *http.Request) (models.ChatKind, bool) {
	return models.ParseKind(r.URL.Query().Get("kind"))
}

func toChatResponse(chat *models.Chat) chatResponse {
	msgs := make([]messageResponse, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		msgs = append(msgs, toMessageResponse(m))
	}
	return chatResponse{
		ID:       chat.ID,
		Name:     chat.Name,
		Avatar:   chat.Avatar,
		Messages: msgs,
	}
}

func toMessageResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:      m.ID,
		Content: m.Content,
		Time:    m.Time,
		Type:    m.Type,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
