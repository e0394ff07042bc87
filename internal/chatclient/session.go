package chatclient

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"hireline/internal/models"

	"github.com/gorilla/websocket"
)

// State is the connection state of a Session. Exactly one value is
// active at a time and observers are notified only on change.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

const (
	defaultHeartbeatInterval    = 30 * time.Second
	defaultReconnectBaseDelay   = 1 * time.Second
	defaultMaxReconnectAttempts = 5
	defaultHandshakeTimeout     = 10 * time.Second
)

type Config struct {
	// BaseURL is the HTTP(S) endpoint of the API server. The realtime
	// scheme is derived from it: http becomes ws, https becomes wss.
	BaseURL string

	HeartbeatInterval    time.Duration
	ReconnectBaseDelay   time.Duration
	MaxReconnectAttempts int
	HandshakeTimeout     time.Duration
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	return cfg
}

// clientConn is the slice of *websocket.Conn the session uses.
type clientConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type dialFunc func(url string) (clientConn, error)

// Session owns one logical realtime connection bound to a single
// conversation at a time. All methods are safe for concurrent use; the
// session serializes its own state mutation behind one mutex.
type Session struct {
	cfg  Config
	dial dialFunc

	mu             sync.Mutex
	conn           clientConn
	state          State
	conversationID string
	credential     string
	attempts       int
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
	destroyed      bool
	pendingStates  []State

	// generation invalidates read loops and timers of superseded
	// connections.
	generation int

	subscribers map[int]Callbacks
	nextSubID   int
}

func NewSession(cfg Config) *Session {
	s := &Session{
		cfg:         cfg.withDefaults(),
		state:       StateDisconnected,
		subscribers: make(map[int]Callbacks),
	}
	s.dial = func(target string) (clientConn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
		conn, _, err := dialer.Dial(target, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	return s
}

// Subscribe registers a callback set and returns its unsubscribe
// handle. Forgetting to call it leaks events across conversation
// switches.
func (s *Session) Subscribe(cb Callbacks) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = cb

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected && s.conn != nil
}

// ConversationID returns the bound conversation id, empty when unbound.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Connect binds the session to (conversationID, credential) and opens
// the realtime connection. An already open connection is closed first
// without triggering reconnection. The call returns once the connection
// is open, or with the dial error.
func (s *Session) Connect(conversationID, credential string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("session destroyed")
	}

	s.closeCurrentLocked(websocket.CloseNormalClosure)

	s.conversationID = conversationID
	s.credential = credential
	s.attempts = 0

	err := s.openLocked()
	s.mu.Unlock()
	s.flushStateChange()
	return err
}

// openLocked dials the endpoint for the currently bound conversation.
// Caller must hold s.mu and flush state notifications after unlocking.
func (s *Session) openLocked() error {
	target, err := endpointURL(s.cfg.BaseURL, s.conversationID, s.credential)
	if err != nil {
		s.setStateLocked(StateError)
		return err
	}

	s.setStateLocked(StateConnecting)

	conn, err := s.dial(target)
	if err != nil {
		s.setStateLocked(StateError)
		return fmt.Errorf("failed to open chat connection: %w", err)
	}

	s.conn = conn
	s.attempts = 0
	s.generation++
	s.setStateLocked(StateConnected)

	stop := make(chan struct{})
	s.heartbeatStop = stop

	go s.readLoop(s.generation, conn)
	go s.heartbeat(stop)

	return nil
}

// Disconnect closes the connection with a normal close code, cancels
// heartbeat and pending reconnects and clears the session binding.
// Safe to call at any time, in any state.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.closeCurrentLocked(websocket.CloseNormalClosure)
	s.conversationID = ""
	s.credential = ""
	s.attempts = 0
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()
	s.flushStateChange()
}

// Destroy disconnects and drops all observers. The session is not
// reusable afterwards.
func (s *Session) Destroy() {
	s.Disconnect()
	s.mu.Lock()
	s.destroyed = true
	s.subscribers = make(map[int]Callbacks)
	s.mu.Unlock()
}

// closeCurrentLocked tears down the live connection, if any, without
// touching the conversation binding. Bumping the generation makes the
// old read loop's close error a no-op.
func (s *Session) closeCurrentLocked(closeCode int) {
	s.generation++

	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.heartbeatStop != nil {
		close(s.heartbeatStop)
		s.heartbeatStop = nil
	}
	if s.conn != nil {
		msg := websocket.FormatCloseMessage(closeCode, "")
		_ = s.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Send serializes and writes one envelope. When the connection is not
// open the call is a silent no-op: nothing is queued, nothing errors.
func (s *Session) Send(kind models.MessageKind, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnected || s.conn == nil {
		return nil
	}

	data, err := encodeEnvelope(kind, payload)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) readLoop(generation int, conn clientConn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(generation, err)
			return
		}

		s.mu.Lock()
		if generation != s.generation {
			s.mu.Unlock()
			return
		}
		subs := s.snapshotSubscribersLocked()
		s.mu.Unlock()

		for _, cb := range subs {
			decodeFrame(raw, cb)
		}
	}
}

// handleReadError decides between a clean shutdown and the reconnection
// policy. Stale generations are ignored: their connection was already
// replaced or closed on purpose.
func (s *Session) handleReadError(generation int, err error) {
	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return
	}

	if s.heartbeatStop != nil {
		close(s.heartbeatStop)
		s.heartbeatStop = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		s.setStateLocked(StateDisconnected)
		s.mu.Unlock()
		s.flushStateChange()
		return
	}

	s.scheduleReconnectLocked()
	s.mu.Unlock()
	s.flushStateChange()
}

// scheduleReconnectLocked runs the backoff policy for one abnormal
// closure. Caller must hold s.mu.
func (s *Session) scheduleReconnectLocked() {
	s.attempts++

	if s.attempts > s.cfg.MaxReconnectAttempts {
		// Budget exhausted: give up and say so exactly once.
		s.setStateLocked(StateDisconnected)
		subs := s.snapshotSubscribersLocked()
		go func() {
			for _, cb := range subs {
				if cb.OnError != nil {
					cb.OnError(models.ErrorData{
						Error:   "connection_lost",
						Message: "connection lost, no more reconnect attempts",
					})
				}
			}
		}()
		return
	}

	s.setStateLocked(StateConnecting)

	delay := s.cfg.ReconnectBaseDelay * (1 << (s.attempts - 1))
	generation := s.generation
	s.reconnectTimer = time.AfterFunc(delay, func() {
		s.reconnect(generation)
	})
}

func (s *Session) reconnect(generation int) {
	s.mu.Lock()
	if generation != s.generation || s.destroyed {
		s.mu.Unlock()
		return
	}
	// Disconnect was called during the backoff window.
	if s.conversationID == "" || s.credential == "" {
		s.mu.Unlock()
		return
	}
	s.reconnectTimer = nil

	if err := s.openLocked(); err != nil {
		// Treat a failed dial like another abnormal closure.
		s.scheduleReconnectLocked()
	}
	s.mu.Unlock()
	s.flushStateChange()
}

// heartbeat emits a ping envelope at the configured interval while the
// connection stays up. Missing pongs are not tracked, liveness failure
// surfaces through the read loop.
func (s *Session) heartbeat(stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.Send(models.KindPing, models.PingData{
				Timestamp: time.Now().UnixMilli(),
			})
		case <-stop:
			return
		}
	}
}

// State change notification. Transitions are recorded under the lock
// and delivered outside it, only when the value actually changed.

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	s.state = next
	s.pendingStates = append(s.pendingStates, next)
}

func (s *Session) flushStateChange() {
	s.mu.Lock()
	pending := s.pendingStates
	s.pendingStates = nil
	subs := s.snapshotSubscribersLocked()
	s.mu.Unlock()

	for _, state := range pending {
		for _, cb := range subs {
			if cb.OnConnectionChange != nil {
				cb.OnConnectionChange(state)
			}
		}
	}
}

func (s *Session) snapshotSubscribersLocked() []Callbacks {
	subs := make([]Callbacks, 0, len(s.subscribers))
	for _, cb := range s.subscribers {
		subs = append(subs, cb)
	}
	return subs
}

// endpointURL derives the realtime target from the configured base URL:
// scheme substitution, conversation path segment, token query parameter.
func endpointURL(base, conversationID, credential string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = "/ws/chat/" + conversationID
	q := url.Values{}
	q.Set("token", credential)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
