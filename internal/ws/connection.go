package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"hireline/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
}

type messageHub interface {
	Join(chatID, userID string) (chan models.Envelope, error)
	Leave(chatID, userID string)
	Dispatch(chatID, userID string, env models.Envelope)
}

// Connection serves one websocket attached to one conversation.
type Connection struct {
	ws         wsConnection
	hub        messageHub
	chatID     string
	userID     string
	fromClient chan models.Envelope
	fromServer chan models.Envelope
	errorCh    chan error
}

func NewConnection(
	hub messageHub,
	ws wsConnection,
	chatID string,
	userID string,
) (*Connection, error) {
	fromServer, err := hub.Join(chatID, userID)
	if err != nil {
		return nil, err
	}
	return &Connection{
		ws:         ws,
		hub:        hub,
		chatID:     chatID,
		userID:     userID,
		fromClient: make(chan models.Envelope),
		fromServer: fromServer,
		errorCh:    make(chan error, 2),
	}, nil
}

func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.fromClient)
		close(c.errorCh)
		c.hub.Leave(c.chatID, c.userID)
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpMessages(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpMessages(ctx context.Context) error {
	for {
		var env models.Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return err
		}
		select {
		case c.fromClient <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	// Confirm the session before anything else flows.
	confirm, err := models.NewEnvelope(models.KindConnection, models.ConnectionData{
		Status: "connected",
		ChatID: c.chatID,
		UserID: c.userID,
	})
	if err != nil {
		return err
	}
	if err := c.ws.WriteJSON(confirm); err != nil {
		return err
	}

	for {
		select {
		case env := <-c.fromClient:
			if err := c.processClientMessage(env); err != nil {
				return err
			}
		case env, ok := <-c.fromServer:
			if !ok {
				return nil
			}
			if err := c.ws.WriteJSON(env); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Connection) processClientMessage(env models.Envelope) error {
	switch env.Type {
	case models.KindPing:
		pong, err := models.NewEnvelope(models.KindPong, models.PingData{
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			return err
		}
		return c.ws.WriteJSON(pong)
	case models.KindMessage, models.KindTyping, models.KindChatHistory:
		c.hub.Dispatch(c.chatID, c.userID, env)
	}

	return nil
}
