package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"hireline/internal/models"
)

type mockWS struct {
	readCh      chan models.Envelope
	writeCh     chan any
	closeCh     chan struct{}
	closed      bool
	errToReturn error
}

func newMockWS() *mockWS {
	return &mockWS{
		readCh:  make(chan models.Envelope, 10),
		writeCh: make(chan any, 10),
		closeCh: make(chan struct{}),
	}
}

func (m *mockWS) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.closeCh)
	return nil
}

func (m *mockWS) WriteJSON(v any) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	m.writeCh <- v
	return nil
}

func (m *mockWS) ReadJSON(v any) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	select {
	case env, ok := <-m.readCh:
		if !ok {
			return errors.New("closed")
		}
		if ptr, ok := v.(*models.Envelope); ok {
			*ptr = env
		}
		return nil
	case <-m.closeCh:
		return errors.New("connection closed")
	}
}

type mockHub struct {
	joinCh     chan string
	leaveCh    chan string
	dispatchCh chan models.Envelope
	joinErr    error
	// per conn channel
	connChans map[string]chan models.Envelope
}

func newMockHub() *mockHub {
	return &mockHub{
		joinCh:     make(chan string, 10),
		leaveCh:    make(chan string, 10),
		dispatchCh: make(chan models.Envelope, 10),
		connChans:  make(map[string]chan models.Envelope),
	}
}

func (m *mockHub) Join(chatID, userID string) (chan models.Envelope, error) {
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	m.joinCh <- connKey(chatID, userID)
	ch := make(chan models.Envelope, 10)
	m.connChans[connKey(chatID, userID)] = ch
	return ch, nil
}

func (m *mockHub) Leave(chatID, userID string) {
	m.leaveCh <- connKey(chatID, userID)
	if ch, ok := m.connChans[connKey(chatID, userID)]; ok {
		close(ch)
		delete(m.connChans, connKey(chatID, userID))
	}
}

func (m *mockHub) Dispatch(chatID, userID string, env models.Envelope) {
	m.dispatchCh <- env
}

// drainWrite pops the next written value or fails the test.
func drainWrite(t *testing.T, ws *mockWS) models.Envelope {
	t.Helper()
	select {
	case v := <-ws.writeCh:
		env, ok := v.(models.Envelope)
		if !ok {
			t.Fatalf("WS received wrong type: %T", v)
		}
		return env
	case <-time.After(1 * time.Second):
		t.Fatal("WS did not receive message")
		return models.Envelope{}
	}
}

func TestConnection_Lifecycle(t *testing.T) {
	hub := newMockHub()
	ws := newMockWS()

	conn, err := NewConnection(hub, ws, "chat1", "user1")
	if err != nil {
		t.Fatalf("NewConnection failed: %v", err)
	}

	select {
	case key := <-hub.joinCh:
		if key != connKey("chat1", "user1") {
			t.Errorf("unexpected join key %s", key)
		}
	default:
		t.Error("Join not called on NewConnection")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error)
	go func() {
		done <- conn.Handle(ctx)
	}()

	// First frame is the connection confirmation.
	confirm := drainWrite(t, ws)
	if confirm.Type != models.KindConnection {
		t.Fatalf("expected connection frame first, got %s", confirm.Type)
	}
	var connData models.ConnectionData
	if err := json.Unmarshal(confirm.Data, &connData); err != nil {
		t.Fatal(err)
	}
	if connData.ChatID != "chat1" || connData.Status != "connected" {
		t.Errorf("unexpected connection data: %+v", connData)
	}

	// 1. Client -> Hub
	clientEnv, err := models.NewEnvelope(models.KindMessage, models.SendMessageData{Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	ws.readCh <- clientEnv

	select {
	case received := <-hub.dispatchCh:
		if received.Type != models.KindMessage {
			t.Errorf("Hub received wrong envelope: %+v", received)
		}
	case <-time.After(1 * time.Second):
		t.Error("Hub did not receive dispatched message")
	}

	// 2. Server -> Client
	serverEnv, err := models.NewEnvelope(models.KindMessage, models.MessageData{
		ID:      "m1",
		ChatID:  "chat1",
		Content: "hi back",
	})
	if err != nil {
		t.Fatal(err)
	}
	hub.connChans[connKey("chat1", "user1")] <- serverEnv

	got := drainWrite(t, ws)
	if got.Type != models.KindMessage {
		t.Errorf("WS received wrong envelope type: %s", got.Type)
	}

	// 3. Ping is answered locally with a pong.
	ping, err := models.NewEnvelope(models.KindPing, models.PingData{Timestamp: time.Now().UnixMilli()})
	if err != nil {
		t.Fatal(err)
	}
	ws.readCh <- ping

	pong := drainWrite(t, ws)
	if pong.Type != models.KindPong {
		t.Errorf("expected pong, got %s", pong.Type)
	}
	select {
	case env := <-hub.dispatchCh:
		t.Errorf("ping should not reach the hub, got %+v", env)
	case <-time.After(50 * time.Millisecond):
	}

	// 4. Stop
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Handle returned error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("Handle did not return after cancel")
	}

	select {
	case key := <-hub.leaveCh:
		if key != connKey("chat1", "user1") {
			t.Errorf("unexpected leave key %s", key)
		}
	default:
		t.Error("Leave not called")
	}

	if !ws.closed {
		t.Error("WS Close not called")
	}
}

func TestConnection_WSError(t *testing.T) {
	hub := newMockHub()
	ws := newMockWS()

	conn, err := NewConnection(hub, ws, "chat1", "user2")
	if err != nil {
		t.Fatal(err)
	}

	// Simulate ReadJSON error immediately
	ws.errToReturn = errors.New("read error")

	done := make(chan error)
	go func() {
		done <- conn.Handle(context.Background())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected error from Handle, got nil")
		}
	case <-time.After(1 * time.Second):
		t.Error("Handle did not return on error")
	}

	if !ws.closed {
		t.Error("WS Close not called")
	}
}

func TestConnection_RejectedJoin(t *testing.T) {
	hub := newMockHub()
	hub.joinErr = models.ErrForbidden

	if _, err := NewConnection(hub, newMockWS(), "chat1", "stranger"); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
