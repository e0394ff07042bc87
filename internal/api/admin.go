package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"

	"hireline/internal/auth"
	"hireline/internal/models"
	"hireline/internal/storage"
)

// AdminHandler serves the moderation surface on the separate admin listener.
type AdminHandler struct {
	auth     *auth.AuthService
	store    *storage.BboltStorage
	username string
	password string
}

func NewAdminHandler(authService *auth.AuthService, store *storage.BboltStorage, username, password string) *AdminHandler {
	return &AdminHandler{
		auth:     authService,
		store:    store,
		username: username,
		password: password,
	}
}

// RequireBasicAuth guards admin endpoints with HTTP basic auth.
func (h *AdminHandler) RequireBasicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(h.username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(h.password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

func (h *AdminHandler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.auth.GetUsers())
}

func (h *AdminHandler) DeactivateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := h.auth.Deactivate(userID); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{
		Success: true,
		Message: fmt.Sprintf("User %s deactivated", userID),
	})
}

func (h *AdminHandler) FlaggedMessagesHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListFlaggedMessages()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list flagged messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *AdminHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseInt(r.PathValue("seq"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message sequence number")
		return
	}
	if err := h.store.MarkMessageDeleted(r.PathValue("chatID"), seq); err != nil {
		writeError(w, http.StatusNotFound, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, models.APIResponse{Success: true})
}
