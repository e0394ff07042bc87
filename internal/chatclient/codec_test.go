package chatclient

import (
	"testing"

	"hireline/internal/models"
)

// recordingCallbacks captures every dispatched event for assertions.
type recordingCallbacks struct {
	messages  []models.MessageData
	typing    []models.TypingData
	statuses  []models.UserStatusData
	histories [][]models.MessageData
	errors    []models.ErrorData
}

func (r *recordingCallbacks) callbacks() Callbacks {
	return Callbacks{
		OnMessage:     func(m models.MessageData) { r.messages = append(r.messages, m) },
		OnTyping:      func(tp models.TypingData) { r.typing = append(r.typing, tp) },
		OnUserStatus:  func(st models.UserStatusData) { r.statuses = append(r.statuses, st) },
		OnChatHistory: func(b []models.MessageData) { r.histories = append(r.histories, b) },
		OnError:       func(e models.ErrorData) { r.errors = append(r.errors, e) },
	}
}

func (r *recordingCallbacks) total() int {
	return len(r.messages) + len(r.typing) + len(r.statuses) + len(r.histories) + len(r.errors)
}

func TestDecodeFrame(t *testing.T) {
	t.Run("Message", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, err := encodeEnvelope(models.KindMessage, models.MessageData{ID: "m1", Content: "hi"})
		if err != nil {
			t.Fatal(err)
		}
		decodeFrame(frame, rec.callbacks())
		if len(rec.messages) != 1 || rec.messages[0].ID != "m1" {
			t.Errorf("unexpected messages: %+v", rec.messages)
		}
	})

	t.Run("Typing", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, _ := encodeEnvelope(models.KindTyping, models.TypingData{UserID: "u1", IsTyping: true})
		decodeFrame(frame, rec.callbacks())
		if len(rec.typing) != 1 || !rec.typing[0].IsTyping {
			t.Errorf("unexpected typing: %+v", rec.typing)
		}
	})

	t.Run("UserStatus", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, _ := encodeEnvelope(models.KindUserStatus, models.UserStatusData{UserID: "u1", Status: "online"})
		decodeFrame(frame, rec.callbacks())
		if len(rec.statuses) != 1 || rec.statuses[0].Status != "online" {
			t.Errorf("unexpected statuses: %+v", rec.statuses)
		}
	})

	t.Run("History", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, _ := encodeEnvelope(models.KindChatHistory, []models.MessageData{{ID: "m2"}, {ID: "m1"}})
		decodeFrame(frame, rec.callbacks())
		if len(rec.histories) != 1 || len(rec.histories[0]) != 2 {
			t.Errorf("unexpected histories: %+v", rec.histories)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, _ := encodeEnvelope(models.KindError, models.ErrorData{Error: "store_failed"})
		decodeFrame(frame, rec.callbacks())
		if len(rec.errors) != 1 || rec.errors[0].Error != "store_failed" {
			t.Errorf("unexpected errors: %+v", rec.errors)
		}
	})

	t.Run("PongDiscarded", func(t *testing.T) {
		rec := &recordingCallbacks{}
		frame, _ := encodeEnvelope(models.KindPong, models.PingData{Timestamp: 1})
		decodeFrame(frame, rec.callbacks())
		if rec.total() != 0 {
			t.Errorf("expected pong to dispatch nothing")
		}
	})

	t.Run("UnknownKindIgnored", func(t *testing.T) {
		rec := &recordingCallbacks{}
		decodeFrame([]byte(`{"type":"eviction_notice","data":{}}`), rec.callbacks())
		if rec.total() != 0 {
			t.Errorf("expected unknown kind to dispatch nothing")
		}
	})

	t.Run("MalformedFrame", func(t *testing.T) {
		rec := &recordingCallbacks{}
		decodeFrame([]byte("not json at all"), rec.callbacks())
		if len(rec.errors) != 1 || rec.errors[0].Error != "parse_error" {
			t.Errorf("expected parse error, got %+v", rec.errors)
		}
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		rec := &recordingCallbacks{}
		decodeFrame([]byte(`{"type":"message","data":"not an object"}`), rec.callbacks())
		if len(rec.messages) != 0 {
			t.Errorf("expected no message dispatch")
		}
		if len(rec.errors) != 1 || rec.errors[0].Error != "parse_error" {
			t.Errorf("expected parse error, got %+v", rec.errors)
		}
	})

	t.Run("NilCallbacksSafe", func(t *testing.T) {
		frame, _ := encodeEnvelope(models.KindMessage, models.MessageData{ID: "m1"})
		decodeFrame(frame, Callbacks{})
		decodeFrame([]byte("garbage"), Callbacks{})
	})
}
