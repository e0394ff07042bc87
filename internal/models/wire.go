package models

import (
	"encoding/json"
	"time"
)

// MessageKind tags an Envelope. The payload shape is fully determined by the
// kind; receivers ignore kinds they do not know.
type MessageKind string

const (
	KindMessage     MessageKind = "message"
	KindTyping      MessageKind = "typing"
	KindUserStatus  MessageKind = "user_status"
	KindChatHistory MessageKind = "chat_history"
	KindError       MessageKind = "error"
	KindPing        MessageKind = "ping"
	KindPong        MessageKind = "pong"
	// KindConnection is sent by the server once after a successful join.
	KindConnection MessageKind = "connection"
)

// Envelope is the tagged wire message exchanged over the chat channel.
type Envelope struct {
	Type MessageKind     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps payload into an Envelope of the given kind.
func NewEnvelope(kind MessageKind, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: kind, Data: data}, nil
}

// MessageData is the server-confirmed message payload delivered inside
// "message" envelopes and "chat_history" batches.
type MessageData struct {
	ID           string    `json:"id"`
	ChatID       string    `json:"chat_id"`
	SenderID     string    `json:"sender_id"`
	Content      string    `json:"content"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar string    `json:"sender_avatar,omitempty"`
}

// SendMessageData is the client-to-server payload of a "message" envelope.
type SendMessageData struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

// TypingData carries a typing indicator. Only the latest value per user
// matters; nothing is persisted.
type TypingData struct {
	UserID   string `json:"user_id,omitempty"`
	ChatID   string `json:"chat_id,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

type UserStatusData struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
	Status string `json:"status"`
}

// HistoryRequest is the client-to-server payload of a "chat_history"
// envelope. The response arrives asynchronously as a "chat_history" envelope
// holding a newest-first page of MessageData.
type HistoryRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

type ErrorData struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type PingData struct {
	Timestamp int64 `json:"timestamp"`
}

type ConnectionData struct {
	Status string `json:"status"`
	ChatID string `json:"chat_id"`
	UserID string `json:"user_id"`
}
