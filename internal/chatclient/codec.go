package chatclient

import (
	"encoding/json"

	"hireline/internal/models"
)

// Callbacks is the typed event set a consumer registers with a Session.
// Nil entries are skipped. Unknown envelope kinds are dropped without
// invoking anything.
type Callbacks struct {
	OnMessage          func(models.MessageData)
	OnTyping           func(models.TypingData)
	OnUserStatus       func(models.UserStatusData)
	OnChatHistory      func([]models.MessageData)
	OnError            func(models.ErrorData)
	OnConnectionChange func(State)
}

func encodeEnvelope(kind models.MessageKind, payload any) ([]byte, error) {
	env, err := models.NewEnvelope(kind, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// decodeFrame parses one text frame and dispatches it to the callback
// set. Malformed frames are funneled into OnError, they never close the
// session.
func decodeFrame(raw []byte, cb Callbacks) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		emitError(cb, "parse_error", "failed to parse incoming frame")
		return
	}

	switch env.Type {
	case models.KindMessage:
		var msg models.MessageData
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			emitError(cb, "parse_error", "malformed message payload")
			return
		}
		if cb.OnMessage != nil {
			cb.OnMessage(msg)
		}
	case models.KindTyping:
		var typing models.TypingData
		if err := json.Unmarshal(env.Data, &typing); err != nil {
			emitError(cb, "parse_error", "malformed typing payload")
			return
		}
		if cb.OnTyping != nil {
			cb.OnTyping(typing)
		}
	case models.KindUserStatus:
		var status models.UserStatusData
		if err := json.Unmarshal(env.Data, &status); err != nil {
			emitError(cb, "parse_error", "malformed user status payload")
			return
		}
		if cb.OnUserStatus != nil {
			cb.OnUserStatus(status)
		}
	case models.KindChatHistory:
		var batch []models.MessageData
		if err := json.Unmarshal(env.Data, &batch); err != nil {
			emitError(cb, "parse_error", "malformed history payload")
			return
		}
		if cb.OnChatHistory != nil {
			cb.OnChatHistory(batch)
		}
	case models.KindError:
		var serverErr models.ErrorData
		if err := json.Unmarshal(env.Data, &serverErr); err != nil {
			emitError(cb, "parse_error", "malformed error payload")
			return
		}
		if cb.OnError != nil {
			cb.OnError(serverErr)
		}
	case models.KindPong:
		// Keep-alive acknowledgment, nothing to process.
	default:
		// Unknown kinds are ignored, not fatal.
	}
}

func emitError(cb Callbacks, code, message string) {
	if cb.OnError != nil {
		cb.OnError(models.ErrorData{Error: code, Message: message})
	}
}
