package netlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Built-in transport meta-events. They carry no payload and are fired by
// the transport itself on session start and loss.
const (
	eventConnect    = "connect"
	eventDisconnect = "disconnect"
	eventCommand    = "command"
	eventCommandAck = "command_ack"
)

// socketTransport abstracts the wire protocol of the event socket. The
// Socket state machine drives it and bridges its native per-event listener
// table into the callback registry.
//
// On replaces any previously bound handler for the event; the listener
// table is not guaranteed to survive a reconnect, so the state machine
// re-binds all wrappers on every successful connect.
type socketTransport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Emit(event string, payload any) error
	On(event string, handler func(payload json.RawMessage))
	Connected() bool
}

// wireEvent is the JSON envelope framing used on the wire: every text
// frame is {"event": <name>, "data": <body>}.
type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// wsTransport is the gorilla/websocket implementation of socketTransport.
// The same transport value is reused across reconnects; each Connect dials
// a fresh underlying connection.
type wsTransport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *zap.Logger

	mu      sync.Mutex // guards conn and closing
	writeMu sync.Mutex // serializes frame writes
	conn    *websocket.Conn
	closing bool

	handlersMu sync.RWMutex
	handlers   map[string]func(json.RawMessage)
}

func newWSTransport(url, token string, logger *zap.Logger) *wsTransport {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &wsTransport{
		url:      url,
		header:   header,
		dialer:   websocket.DefaultDialer,
		logger:   logger,
		handlers: make(map[string]func(json.RawMessage)),
	}
}

// Connect dials the device. When a previous connection is still open it is
// closed silently first; repeated calls genuinely re-dial, which callers
// use for manual retry.
func (t *wsTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.closing = true
		_ = t.conn.Close()
		t.conn = nil
	}
	t.mu.Unlock()

	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("websocket handshake rejected: unauthorized")
		}
		if resp != nil {
			return fmt.Errorf("websocket handshake failed (status %d): %w", resp.StatusCode, err)
		}
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.closing = false
	t.mu.Unlock()

	go t.readLoop(conn)

	t.logger.Debug("transport connected", zap.String("url", t.url))
	t.fire(eventConnect, nil)
	return nil
}

// Disconnect closes the current connection. Safe to call when not
// connected. Fires the disconnect meta-event exactly once for the session.
func (t *wsTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil
	}
	t.closing = true
	t.conn = nil
	t.mu.Unlock()

	t.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()
	err := conn.Close()

	t.fire(eventDisconnect, nil)
	return err
}

// Emit sends a named event with a JSON payload
func (t *wsTransport) Emit(event string, payload any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport is not connected")
	}

	frame := wireEvent{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		frame.Data = data
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send %s event: %w", event, err)
	}
	t.logger.Debug("transport event sent", zap.String("event", event))
	return nil
}

// On binds handler as the single native listener for event, replacing any
// previous one.
func (t *wsTransport) On(event string, handler func(json.RawMessage)) {
	t.handlersMu.Lock()
	t.handlers[event] = handler
	t.handlersMu.Unlock()
}

// Connected reports whether a connection is currently open
func (t *wsTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

func (t *wsTransport) fire(event string, data json.RawMessage) {
	t.handlersMu.RLock()
	handler := t.handlers[event]
	t.handlersMu.RUnlock()
	if handler == nil {
		t.logger.Debug("no listener bound for event", zap.String("event", event))
		return
	}
	handler(data)
}

// readLoop reads frames until the connection dies. The disconnect
// meta-event fires only for unexpected drops; deliberate teardown
// (Disconnect, or replacement by a newer Connect) is silent here because
// its initiator already reports it.
func (t *wsTransport) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("transport read error", zap.Error(err))
			}
			break
		}

		var frame wireEvent
		if err := json.Unmarshal(data, &frame); err != nil {
			t.logger.Warn("dropping malformed frame", zap.Error(err), zap.Int("length", len(data)))
			continue
		}
		if frame.Event == "" {
			t.logger.Warn("dropping frame without event name")
			continue
		}
		t.fire(frame.Event, frame.Data)
	}

	t.mu.Lock()
	wasCurrent := t.conn == conn
	deliberate := t.closing
	if wasCurrent {
		t.conn = nil
	}
	t.mu.Unlock()

	if wasCurrent && !deliberate {
		t.fire(eventDisconnect, nil)
	}
}
