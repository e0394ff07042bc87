package chatclient

import (
	"strings"
	"sync"

	"hireline/internal/models"

	"github.com/google/uuid"
)

// Message is one entry of the visible conversation list. Local entries
// carry a temporary id until the server confirms them.
type Message struct {
	models.MessageData
	Local bool
}

// Handlers are the optional consumer hooks of a Conversation. The
// message list itself is read through Messages(), OnUpdate just signals
// that it changed.
type Handlers struct {
	OnUpdate           func()
	OnError            func(models.ErrorData)
	OnUserStatus       func(models.UserStatusData)
	OnConnectionChange func(State)
}

// Conversation binds a Session to one conversation and owns the visible
// message list: optimistic echo reconciliation, history backfill and
// the typing-user set.
type Conversation struct {
	session  *Session
	chatID   string
	selfID   string
	handlers Handlers

	mu       sync.Mutex
	messages []Message
	typing   map[string]bool

	// pendingLocalID tracks the single in-flight optimistic send. A
	// second send before confirmation overwrites it, leaving the first
	// local entry unreconciled. Known property of the protocol, kept
	// as is.
	pendingLocalID string

	unsubscribe func()
}

// NewConversation subscribes to the session and connects it to chatID.
// selfID is the current user, used to recognize echo confirmations.
func NewConversation(session *Session, chatID, credential, selfID string, handlers Handlers) (*Conversation, error) {
	c := &Conversation{
		session:  session,
		chatID:   chatID,
		selfID:   selfID,
		handlers: handlers,
		typing:   make(map[string]bool),
	}

	c.unsubscribe = session.Subscribe(Callbacks{
		OnMessage:          c.handleIncoming,
		OnTyping:           c.handleTyping,
		OnUserStatus:       handlers.OnUserStatus,
		OnChatHistory:      c.handleHistory,
		OnError:            handlers.OnError,
		OnConnectionChange: handlers.OnConnectionChange,
	})

	if err := session.Connect(chatID, credential); err != nil {
		c.unsubscribe()
		return nil, err
	}

	return c, nil
}

// Close detaches from the session and closes the connection. The
// session itself stays usable for the next conversation.
func (c *Conversation) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.session.Disconnect()
}

// SendMessage shows the message immediately as a local entry and sends
// it. Empty or whitespace-only content is dropped. The local entry is
// discarded if the write itself fails.
func (c *Conversation) SendMessage(content, contentType string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if contentType == "" {
		contentType = "text"
	}

	tempID := "local-" + uuid.New().String()

	c.mu.Lock()
	c.messages = append(c.messages, Message{
		MessageData: models.MessageData{
			ID:          tempID,
			ChatID:      c.chatID,
			SenderID:    c.selfID,
			Content:     content,
			ContentType: contentType,
		},
		Local: true,
	})
	c.pendingLocalID = tempID
	c.mu.Unlock()
	c.notifyUpdate()

	err := c.session.Send(models.KindMessage, models.SendMessageData{
		Content:     content,
		ContentType: contentType,
	})
	if err != nil {
		c.mu.Lock()
		c.removeMessageLocked(tempID)
		if c.pendingLocalID == tempID {
			c.pendingLocalID = ""
		}
		c.mu.Unlock()
		c.notifyUpdate()
		return err
	}

	return nil
}

// SendTyping is fire and forget, no acknowledgment is tracked.
func (c *Conversation) SendTyping(isTyping bool) {
	_ = c.session.Send(models.KindTyping, models.TypingData{IsTyping: isTyping})
}

// RequestHistory asks for one page of older messages. The batch arrives
// asynchronously and is merged in front of the live list.
func (c *Conversation) RequestHistory(page, size int) {
	_ = c.session.Send(models.KindChatHistory, models.HistoryRequest{Page: page, Size: size})
}

// Messages returns a copy of the visible message list in chronological
// order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// TypingUsers returns the ids of users currently typing.
func (c *Conversation) TypingUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var users []string
	for id, isTyping := range c.typing {
		if isTyping {
			users = append(users, id)
		}
	}
	return users
}

// handleIncoming appends a confirmed message. A message from the
// current user reconciles the pending optimistic entry: the temporary
// entry is removed and the confirmed one appended in its place.
func (c *Conversation) handleIncoming(msg models.MessageData) {
	c.mu.Lock()

	if msg.SenderID == c.selfID && c.pendingLocalID != "" {
		c.removeMessageLocked(c.pendingLocalID)
		c.pendingLocalID = ""
	}

	if c.containsLocked(msg.ID) {
		c.mu.Unlock()
		return
	}

	c.messages = append(c.messages, Message{MessageData: msg})
	c.mu.Unlock()
	c.notifyUpdate()
}

func (c *Conversation) handleTyping(typing models.TypingData) {
	c.mu.Lock()
	if typing.IsTyping {
		c.typing[typing.UserID] = true
	} else {
		delete(c.typing, typing.UserID)
	}
	c.mu.Unlock()
	c.notifyUpdate()
}

// handleHistory merges one newest-first history batch: reversed to
// chronological order, deduplicated by id and prepended to whatever
// arrived live in the meantime.
func (c *Conversation) handleHistory(batch []models.MessageData) {
	c.mu.Lock()

	var older []Message
	seen := make(map[string]struct{}, len(batch))
	for i := len(batch) - 1; i >= 0; i-- {
		if _, dup := seen[batch[i].ID]; dup {
			continue
		}
		seen[batch[i].ID] = struct{}{}
		if c.containsLocked(batch[i].ID) {
			continue
		}
		older = append(older, Message{MessageData: batch[i]})
	}

	if len(older) > 0 {
		c.messages = append(older, c.messages...)
	}
	c.mu.Unlock()
	c.notifyUpdate()
}

// removeMessageLocked drops the entry with the given id, if present.
// Caller must hold c.mu.
func (c *Conversation) removeMessageLocked(id string) {
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

func (c *Conversation) containsLocked(id string) bool {
	for _, m := range c.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (c *Conversation) notifyUpdate() {
	if c.handlers.OnUpdate != nil {
		c.handlers.OnUpdate()
	}
}
