package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hireline/internal/content"
	"hireline/internal/models"
)

type CreateChatRequest struct {
	FreelancerID       string `json:"freelancer_id"`
	Title              string `json:"title"`
	ProjectTitle       string `json:"project_title"`
	ProjectDescription string `json:"project_description"`
	ProjectBudget      string `json:"project_budget"`
}

// ChatListItem decorates a chat with what the inbox view needs: the other
// participant, the unread counter and the latest message.
type ChatListItem struct {
	models.Chat
	OtherUser   models.User         `json:"other_user"`
	UnreadCount int64               `json:"unread_count"`
	LastMessage *models.MessageData `json:"last_message,omitempty"`
}

func (a *API) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	user, ok := a.auth.GetUser(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if user.UserType != models.UserTypeClientHunter {
		writeError(w, http.StatusForbidden, "Only client hunters can start chats")
		return
	}
	if !user.HasPaid {
		writeError(w, http.StatusPaymentRequired, "Platform access fee has not been paid")
		return
	}

	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := a.store.GetFreelancer(req.FreelancerID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Freelancer not found")
		return
	}
	if profile.UserID == userID {
		writeError(w, http.StatusBadRequest, "Cannot open a chat with yourself")
		return
	}

	// One conversation per pair. A repeated create returns the existing chat.
	if existing, err := a.store.FindChat(userID, profile.UserID); err == nil {
		writeJSON(w, http.StatusOK, existing)
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to look up chat")
		return
	}

	chat := models.Chat{
		ID:                 uuid.NewString(),
		InitiatorID:        userID,
		ParticipantID:      profile.UserID,
		Title:              content.Sanitize(req.Title),
		ProjectTitle:       content.Sanitize(req.ProjectTitle),
		ProjectDescription: content.Sanitize(req.ProjectDescription),
		ProjectBudget:      content.Sanitize(req.ProjectBudget),
		Status:             models.ChatStatusActive,
		CreatedAt:          time.Now().UnixMilli(),
	}
	if err := a.store.UpsertChat(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

func (a *API) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	chats, err := a.store.ListChats(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list chats")
		return
	}

	items := make([]ChatListItem, 0, len(chats))
	for _, chat := range chats {
		item := ChatListItem{Chat: chat}
		if other, ok := a.auth.GetUser(chat.OtherParticipant(userID)); ok {
			item.OtherUser = other
		}
		if unread, err := a.store.UnreadCount(chat.ID, userID); err == nil {
			item.UnreadCount = unread
		}
		if last, err := a.store.ListMessagesPage(chat.ID, 1, 1); err == nil && len(last) > 0 {
			data := a.messageToWire(last[0])
			item.LastMessage = &data
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		ti, tj := items[i].LastMessageAt, items[j].LastMessageAt
		if ti == 0 {
			ti = items[i].CreatedAt
		}
		if tj == 0 {
			tj = items[j].CreatedAt
		}
		return ti > tj
	})

	writeJSON(w, http.StatusOK, items)
}

// participantChat resolves {id} and checks the caller is in the chat. Writes
// the error response itself on failure.
func (a *API) participantChat(w http.ResponseWriter, r *http.Request) (models.Chat, bool) {
	chat, err := a.store.GetChat(r.PathValue("id"))
	if err != nil || chat.Status == models.ChatStatusDeleted {
		writeError(w, http.StatusNotFound, "Chat not found")
		return models.Chat{}, false
	}
	if !chat.IsParticipant(requestUserID(r)) {
		writeError(w, http.StatusForbidden, "Not a chat participant")
		return models.Chat{}, false
	}
	return chat, true
}

func (a *API) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, ok := a.participantChat(w, r)
	if !ok {
		return
	}

	item := ChatListItem{Chat: chat}
	if other, okUser := a.auth.GetUser(chat.OtherParticipant(requestUserID(r))); okUser {
		item.OtherUser = other
	}
	if err := a.store.MarkChatRead(chat.ID, requestUserID(r)); err != nil {
		slog.Warn("failed to mark chat read", "chat", chat.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) ArchiveChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, ok := a.participantChat(w, r)
	if !ok {
		return
	}

	if chat.Status == models.ChatStatusArchived {
		chat.Status = models.ChatStatusActive
	} else {
		chat.Status = models.ChatStatusArchived
	}
	if err := a.store.UpsertChat(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update chat")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

func (a *API) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chat, ok := a.participantChat(w, r)
	if !ok {
		return
	}

	chat.Status = models.ChatStatusDeleted
	if err := a.store.UpsertChat(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}

type MessagePageResponse struct {
	Messages []models.MessageData `json:"messages"`
	Page     int                  `json:"page"`
	Size     int                  `json:"size"`
}

func (a *API) ChatMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chat, ok := a.participantChat(w, r)
	if !ok {
		return
	}

	page, size := parsePage(r)
	messages, err := a.store.ListMessagesPage(chat.ID, page, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list messages")
		return
	}

	if page == 1 {
		if err := a.store.MarkChatRead(chat.ID, requestUserID(r)); err != nil {
			slog.Warn("failed to mark chat read", "chat", chat.ID, "error", err)
		}
	}

	out := make([]models.MessageData, 0, len(messages))
	for _, m := range messages {
		out = append(out, a.messageToWire(m))
	}
	writeJSON(w, http.StatusOK, MessagePageResponse{Messages: out, Page: page, Size: size})
}

func (a *API) SearchMessagesHandler(w http.ResponseWriter, r *http.Request) {
	chat, ok := a.participantChat(w, r)
	if !ok {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	messages, err := a.store.SearchMessages(chat.ID, query, parseInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to search messages")
		return
	}

	out := make([]models.MessageData, 0, len(messages))
	for _, m := range messages {
		out = append(out, a.messageToWire(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) messageToWire(m models.Message) models.MessageData {
	data := models.MessageData{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		ContentType: m.ContentType,
		CreatedAt:   m.CreatedAt,
	}
	if sender, ok := a.auth.GetUser(m.SenderID); ok {
		data.SenderName = sender.FullName()
		data.SenderAvatar = sender.ProfilePicture
	}
	return data
}
