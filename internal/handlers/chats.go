package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"nexgig/db"
)

type chatJSON struct {
	ID          int    `json:"id"`
	LastMessage string `json:"lastMessage"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type messageJSON struct {
	ID        int64  `json:"id"`
	ChatID    int    `json:"chatId"`
	SenderID  int    `json:"senderId"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"`
}

func toMessageJSON(m *db.Message) messageJSON {
	return messageJSON{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.UnixMilli(),
	}
}

// GetChatsHandler handles GET /api/chats: the caller's chats with
// last-message previews, active chats first.
func (h *Handler) GetChatsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, "")
	if !ok {
		return
	}

	previews, err := h.Store.GetUserChats(r.Context(), id.UserID)
	if err != nil {
		writeError(w, "Failed to fetch chats", http.StatusInternalServerError)
		return
	}

	chats := make([]chatJSON, 0, len(previews))
	for _, p := range previews {
		chats = append(chats, chatJSON{
			ID:          p.ID,
			LastMessage: p.LastMessage,
			UpdatedAt:   p.LastActivity.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

// CreateChatHandler handles POST /api/chats: idempotently opens the direct
// chat between the caller and a peer.
func (h *Handler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, "")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req struct {
		PeerID int `json:"peerId"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.PeerID <= 0 || req.PeerID == id.UserID {
		writeError(w, "Invalid peer ID", http.StatusBadRequest)
		return
	}
	if _, err := h.Store.GetUserByID(r.Context(), req.PeerID); err != nil {
		writeError(w, "Peer not found", http.StatusNotFound)
		return
	}

	chatID, err := h.Store.CreateOrGetDirectChat(r.Context(), id.UserID, req.PeerID)
	if err != nil {
		writeError(w, "Failed to create chat", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chatId": chatID})
}

// GetChatMessagesHandler handles GET /api/chats/{chatId}/messages.
// Non-participants get Forbidden regardless of whether the chat exists.
func (h *Handler) GetChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, "")
	if !ok {
		return
	}

	chatID, err := urlID(r, "chatId")
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	participant, err := h.Store.IsChatParticipant(r.Context(), id.UserID, chatID)
	if err != nil {
		writeError(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}
	if !participant {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	msgs, err := h.Store.GetChatMessages(r.Context(), chatID)
	if err != nil {
		writeError(w, "Failed to fetch messages", http.StatusInternalServerError)
		return
	}

	messages := make([]messageJSON, 0, len(msgs))
	for i := range msgs {
		messages = append(messages, toMessageJSON(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// SendMessageHandler handles POST /api/chats/{chatId}/messages. The store
// appends the message and bumps the chat atomically; a failure rolls both
// back and surfaces as 500.
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r, "")
	if !ok {
		return
	}

	chatID, err := urlID(r, "chatId")
	if err != nil {
		writeError(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		writeError(w, "Message text is required", http.StatusBadRequest)
		return
	}

	participant, err := h.Store.IsChatParticipant(r.Context(), id.UserID, chatID)
	if err != nil {
		writeError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	if !participant {
		writeError(w, "Forbidden", http.StatusForbidden)
		return
	}

	msg, err := h.Store.SendMessage(r.Context(), chatID, id.UserID, req.Text)
	if err != nil {
		writeError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": toMessageJSON(msg)})
}
