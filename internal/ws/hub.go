package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hireline/internal/chat"
	"hireline/internal/content"
	"hireline/internal/models"
	"hireline/internal/push"

	"github.com/google/uuid"
)

const roomCacheSize = 50

// Store is the slice of persistence the hub needs.
type Store interface {
	GetChat(id string) (models.Chat, error)
	AppendMessage(message models.Message) (models.Message, error)
	ListMessagesPage(chatID string, page, size int) ([]models.Message, error)
	UpsertNotification(n models.Notification) error
}

// UserDirectory resolves user ids to profiles for sender metadata.
type UserDirectory interface {
	GetUser(id string) (models.User, bool)
}

// Notifier reaches participants that have no open socket.
type Notifier interface {
	Notify(userID string, payload push.Payload)
}

type Hub struct {
	store    Store
	users    UserDirectory
	notifier Notifier

	// Map of chatID -> Room object, loaded lazily from storage.
	rooms map[string]*chat.Room

	// Map of chatID|userID -> connection channel.
	connected map[string]chan models.Envelope

	mu sync.RWMutex
}

func NewHub(store Store, users UserDirectory, notifier Notifier) *Hub {
	return &Hub{
		store:     store,
		users:     users,
		notifier:  notifier,
		rooms:     make(map[string]*chat.Room),
		connected: make(map[string]chan models.Envelope),
	}
}

func connKey(chatID, userID string) string {
	return chatID + "|" + userID
}

// room returns the in-memory room for a chat, creating it from storage
// on first access. Caller must hold h.mu.
func (h *Hub) room(chatID string) (*chat.Room, error) {
	if r, ok := h.rooms[chatID]; ok {
		return r, nil
	}

	dbChat, err := h.store.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if dbChat.Status != models.ChatStatusActive {
		return nil, models.ErrNotFound
	}

	r := chat.NewRoom(chat.Config{
		ID:         chatID,
		Members:    []string{dbChat.InitiatorID, dbChat.ParticipantID},
		MaxRecords: roomCacheSize,
		Deliver:    h.deliverMessage,
	})

	// Warm the ring with the newest stored page, oldest first.
	recent, err := h.store.ListMessagesPage(chatID, 1, roomCacheSize)
	if err != nil {
		return nil, err
	}
	for i := len(recent) - 1; i >= 0; i-- {
		r.Append(recent[i])
	}

	h.rooms[chatID] = r
	return r, nil
}

// Join attaches a user to a conversation and returns the channel the
// connection drains. Non-participants are rejected.
func (h *Hub) Join(chatID, userID string) (chan models.Envelope, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, err := h.room(chatID)
	if err != nil {
		return nil, err
	}
	if !r.Join(userID) {
		return nil, models.ErrForbidden
	}

	ch := make(chan models.Envelope, 100)
	h.connected[connKey(chatID, userID)] = ch

	h.broadcastStatusLocked(r, chatID, userID, "online")

	return ch, nil
}

func (h *Hub) Leave(chatID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.connected[connKey(chatID, userID)]; ok {
		close(ch)
		delete(h.connected, connKey(chatID, userID))
	}

	r, ok := h.rooms[chatID]
	if !ok {
		return
	}
	r.Leave(userID)

	h.broadcastStatusLocked(r, chatID, userID, "offline")
}

// broadcastStatusLocked tells the other online members that userID
// changed presence. Caller must hold h.mu.
func (h *Hub) broadcastStatusLocked(r *chat.Room, chatID, userID, status string) {
	env, err := models.NewEnvelope(models.KindUserStatus, models.UserStatusData{
		UserID: userID,
		ChatID: chatID,
		Status: status,
	})
	if err != nil {
		return
	}
	for _, memberID := range r.OnlineMembers() {
		if memberID == userID {
			continue
		}
		if ch, ok := h.connected[connKey(chatID, memberID)]; ok {
			select {
			case ch <- env:
			default:
			}
		}
	}
}

// Dispatch routes one client envelope for a joined conversation.
func (h *Hub) Dispatch(chatID, userID string, env models.Envelope) {
	switch env.Type {
	case models.KindMessage:
		h.handleMessage(chatID, userID, env.Data)
	case models.KindTyping:
		h.handleTyping(chatID, userID, env.Data)
	case models.KindChatHistory:
		h.handleHistory(chatID, userID, env.Data)
	}
}

func (h *Hub) handleMessage(chatID, userID string, data json.RawMessage) {
	var req models.SendMessageData
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(chatID, userID, "invalid_payload", "malformed message payload")
		return
	}
	if req.Content == "" {
		h.sendError(chatID, userID, "empty_message", "message content is required")
		return
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text"
	}

	// Redact URLs and contact details before anything is stored.
	filtered := content.FilterMessage(req.Content)

	msg := models.Message{
		ID:          uuid.New().String(),
		ChatID:      chatID,
		SenderID:    userID,
		Content:     content.Escape(filtered.Content),
		ContentType: contentType,
		IsFlagged:   !filtered.Clean,
		CreatedAt:   time.Now(),
	}
	if !filtered.Clean {
		msg.FlagReason = fmt.Sprintf("content filter: %v", filtered.Violations)
	}

	stored, err := h.store.AppendMessage(msg)
	if err != nil {
		slog.Error("failed to store message", "chat_id", chatID, "error", err)
		h.sendError(chatID, userID, "store_failed", "message could not be saved")
		return
	}

	h.mu.RLock()
	r, ok := h.rooms[chatID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	// Fan out to online members (sender included), then reach the
	// offline side out of band.
	r.Append(stored)
	h.notifyOffline(r, chatID, stored)
}

func (h *Hub) handleTyping(chatID, userID string, data json.RawMessage) {
	var req models.TypingData
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	req.UserID = userID
	req.ChatID = chatID

	env, err := models.NewEnvelope(models.KindTyping, req)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[chatID]
	if !ok {
		return
	}
	for _, memberID := range r.OnlineMembers() {
		if memberID == userID {
			continue
		}
		if ch, ok := h.connected[connKey(chatID, memberID)]; ok {
			select {
			case ch <- env:
			default:
			}
		}
	}
}

func (h *Hub) handleHistory(chatID, userID string, data json.RawMessage) {
	req := models.HistoryRequest{Page: 1, Size: roomCacheSize}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			h.sendError(chatID, userID, "invalid_payload", "malformed history request")
			return
		}
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 || req.Size > 200 {
		req.Size = roomCacheSize
	}

	messages, err := h.store.ListMessagesPage(chatID, req.Page, req.Size)
	if err != nil {
		slog.Error("failed to load history", "chat_id", chatID, "error", err)
		h.sendError(chatID, userID, "history_failed", "history could not be loaded")
		return
	}

	// Newest first on the wire; clients reverse for display.
	batch := make([]models.MessageData, 0, len(messages))
	for _, m := range messages {
		batch = append(batch, h.toWire(m))
	}

	env, err := models.NewEnvelope(models.KindChatHistory, batch)
	if err != nil {
		return
	}
	h.sendTo(chatID, userID, env)
}

// deliverMessage is the room callback fanning one stored message out to
// one online member.
func (h *Hub) deliverMessage(receiverID string, chatID string, message models.Message) {
	env, err := models.NewEnvelope(models.KindMessage, h.toWire(message))
	if err != nil {
		return
	}
	h.sendTo(chatID, receiverID, env)
}

// notifyOffline records a notification and fires web push for members
// without an open socket.
func (h *Hub) notifyOffline(r *chat.Room, chatID string, message models.Message) {
	online := make(map[string]bool)
	for _, id := range r.OnlineMembers() {
		online[id] = true
	}

	senderName := "Someone"
	if sender, ok := h.users.GetUser(message.SenderID); ok {
		senderName = sender.FullName()
	}

	for _, memberID := range r.Members() {
		if memberID == message.SenderID || online[memberID] {
			continue
		}

		n := models.Notification{
			ID:            uuid.New().String(),
			UserID:        memberID,
			Type:          models.NotificationChatMessage,
			Title:         "New message",
			Message:       fmt.Sprintf("%s sent you a message", senderName),
			RelatedChatID: chatID,
			CreatedAt:     time.Now().UnixMilli(),
		}
		if err := h.store.UpsertNotification(n); err != nil {
			slog.Error("failed to store notification", "user_id", memberID, "error", err)
		}

		if h.notifier != nil {
			h.notifier.Notify(memberID, push.Payload{
				Title:  senderName,
				Body:   message.Content,
				ChatID: chatID,
			})
		}
	}
}

func (h *Hub) sendTo(chatID, userID string, env models.Envelope) {
	h.mu.RLock()
	ch, ok := h.connected[connKey(chatID, userID)]
	h.mu.RUnlock()

	if !ok {
		return
	}
	select {
	case ch <- env:
	default:
		slog.Warn("dropping envelope, send buffer full", "chat_id", chatID, "user_id", userID)
	}
}

func (h *Hub) sendError(chatID, userID, code, message string) {
	env, err := models.NewEnvelope(models.KindError, models.ErrorData{
		Error:   code,
		Message: message,
	})
	if err != nil {
		return
	}
	h.sendTo(chatID, userID, env)
}

func (h *Hub) toWire(m models.Message) models.MessageData {
	data := models.MessageData{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
	}
	if sender, ok := h.users.GetUser(m.SenderID); ok {
		data.SenderName = sender.FullName()
		data.SenderAvatar = sender.ProfilePicture
	}
	return data
}
