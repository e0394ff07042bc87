package ws

import (
	"errors"
	"log/slog"
	"net/http"

	"hireline/internal/auth"
	"hireline/internal/models"

	"github.com/gorilla/websocket"
)

// Server upgrades chat sockets on /ws/chat/{chatID}. The session token
// travels in the token query parameter because browser websocket
// clients cannot set headers.
type Server struct {
	auth     *auth.AuthService
	hub      *Hub
	upgrader *websocket.Upgrader
}

func NewServer(auth *auth.AuthService, hub *Hub) *Server {
	return &Server{
		auth: auth,
		hub:  hub,
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("chatID")
	if chatID == "" {
		http.Error(w, "Chat not specified", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("token")
	}
	userID, err := s.auth.GetUserID(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("error upgrading to websocket", "error", err)
		return
	}

	c, err := NewConnection(s.hub, conn, chatID, userID)
	if err != nil {
		code := websocket.ClosePolicyViolation
		switch {
		case errors.Is(err, models.ErrNotFound):
			code = websocket.CloseNormalClosure
		case errors.Is(err, models.ErrForbidden):
		}
		msg := websocket.FormatCloseMessage(code, err.Error())
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
		return
	}

	if err := c.Handle(r.Context()); err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			slog.Debug("websocket session ended", "chat_id", chatID, "user_id", userID, "error", err)
		}
	}
}
