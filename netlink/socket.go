package netlink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConnectTimeout bounds a single connection attempt
	DefaultConnectTimeout = 10 * time.Second

	// DefaultCommandTimeout bounds the wait for a command acknowledgement
	DefaultCommandTimeout = 10 * time.Second

	// DefaultReconnectDelay is the initial backoff delay after an
	// unexpected disconnect
	DefaultReconnectDelay = 2 * time.Second

	// DefaultMaxReconnectDelay is the backoff ceiling
	DefaultMaxReconnectDelay = 60 * time.Second
)

// Socket owns the persistent event connection to a Netlink device: the
// connection state machine, command correlation, callback dispatch and
// automatic reconnection.
//
// A Socket is safe for concurrent use. Callbacks registered with On
// survive connect/disconnect cycles; only the transport-level listener
// wrappers are re-bound on each connect.
type Socket struct {
	host   string
	port   int
	token  string
	wsPath string
	logger *zap.Logger

	autoReconnect  bool
	connectTimeout time.Duration
	commandTimeout time.Duration
	initialDelay   time.Duration
	maxDelay       time.Duration

	mu              sync.Mutex
	transport       socketTransport // created lazily, reused across reconnects
	connected       bool
	shouldReconnect bool
	currentDelay    time.Duration
	reconnectCancel context.CancelFunc
	reconnectDone   chan struct{}

	pendingMu sync.Mutex
	pending   map[string]pendingCommand

	callbacks *callbackRegistry
}

// SocketOption configures a Socket
type SocketOption func(*Socket)

// WithSocketLogger sets the logger for connection and dispatch tracing
func WithSocketLogger(logger *zap.Logger) SocketOption {
	return func(s *Socket) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSocketPort sets the device port (default 80)
func WithSocketPort(port int) SocketOption {
	return func(s *Socket) {
		if port > 0 {
			s.port = port
		}
	}
}

// WithWSPath sets the event socket path advertised by the device
func WithWSPath(path string) SocketOption {
	return func(s *Socket) {
		if path != "" {
			s.wsPath = path
		}
	}
}

// WithAutoReconnect enables or disables the reconnection supervisor
// (enabled by default)
func WithAutoReconnect(enabled bool) SocketOption {
	return func(s *Socket) {
		s.autoReconnect = enabled
	}
}

// WithReconnectDelay sets the initial backoff delay and its ceiling
func WithReconnectDelay(initial, max time.Duration) SocketOption {
	return func(s *Socket) {
		if initial > 0 {
			s.initialDelay = initial
		}
		if max >= s.initialDelay {
			s.maxDelay = max
		} else {
			s.maxDelay = s.initialDelay
		}
	}
}

// WithSocketConnectTimeout bounds a single connection attempt
func WithSocketConnectTimeout(timeout time.Duration) SocketOption {
	return func(s *Socket) {
		if timeout > 0 {
			s.connectTimeout = timeout
		}
	}
}

// WithSocketCommandTimeout sets the default acknowledgement wait
func WithSocketCommandTimeout(timeout time.Duration) SocketOption {
	return func(s *Socket) {
		if timeout > 0 {
			s.commandTimeout = timeout
		}
	}
}

// NewSocket creates an event socket client for a device. No connection is
// made until Connect is called.
func NewSocket(host, token string, opts ...SocketOption) *Socket {
	s := &Socket{
		host:           host,
		port:           DefaultPort,
		token:          token,
		wsPath:         DefaultWSPath,
		logger:         zap.NewNop(),
		autoReconnect:  true,
		connectTimeout: DefaultConnectTimeout,
		commandTimeout: DefaultCommandTimeout,
		initialDelay:   DefaultReconnectDelay,
		maxDelay:       DefaultMaxReconnectDelay,
		pending:        make(map[string]pendingCommand),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.currentDelay = s.initialDelay
	s.callbacks = newCallbackRegistry(s.logger)
	return s
}

// Connected reports whether the event connection is currently up
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// On registers cb for the named push event and returns it unchanged.
// Registration is valid at any time, before or after connecting, and
// persists across reconnects. Callbacks for one event run in registration
// order.
func (s *Socket) On(event string, cb EventCallback) EventCallback {
	s.callbacks.add(event, cb)

	s.mu.Lock()
	t := s.transport
	s.mu.Unlock()
	if t != nil && !isReservedEvent(event) {
		t.On(event, s.listenerFor(event))
	}
	return cb
}

// Connect establishes the event connection and authenticates using the
// bearer token. Calling it while already connected re-dials the transport
// rather than failing, which makes it usable for manual retry. On success
// the backoff delay resets to its initial value and all listener wrappers
// are re-bound.
func (s *Socket) Connect(ctx context.Context) error {
	t := s.ensureTransport()
	s.bindListeners(t)

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.connectTimeout)
		defer cancel()
	}

	if err := t.Connect(dialCtx); err != nil {
		nlErr := classifyConnectError(err)
		s.logger.Warn("connection attempt failed",
			zap.String("host", s.host),
			zap.String("error_type", nlErr.Type.String()),
			zap.Error(err),
		)
		return nlErr
	}

	s.mu.Lock()
	s.connected = true
	s.currentDelay = s.initialDelay
	s.shouldReconnect = s.autoReconnect
	s.mu.Unlock()

	s.logger.Info("event socket connected",
		zap.String("host", s.host),
		zap.String("path", s.wsPath),
	)
	return nil
}

// Disconnect tears the session down: it cancels any in-flight reconnection
// supervisor, fails every pending command, and closes the transport. Safe
// to call repeatedly or when never connected.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	s.shouldReconnect = false
	cancel := s.reconnectCancel
	done := s.reconnectDone
	s.reconnectCancel = nil
	s.reconnectDone = nil
	t := s.transport
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		if done != nil {
			<-done
		}
	}

	s.failPending(newConnectionError("disconnected while waiting for acknowledgement", nil))

	if t != nil {
		if err := t.Disconnect(); err != nil {
			s.logger.Debug("transport close error", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

// ensureTransport creates the transport handle on first use. The same
// handle is reused for every subsequent reconnect.
func (s *Socket) ensureTransport() socketTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		url := fmt.Sprintf("ws://%s:%d%s", s.host, s.port, s.wsPath)
		s.transport = newWSTransport(url, s.token, s.logger)
	}
	return s.transport
}

// bindListeners (re-)binds a native listener wrapper for every event with
// subscribers, plus the built-in meta-events and the acknowledgement
// channel. Called on every connect because the transport's listener table
// may not survive a reconnect.
func (s *Socket) bindListeners(t socketTransport) {
	t.On(eventConnect, func(json.RawMessage) { s.onTransportConnected() })
	t.On(eventDisconnect, func(json.RawMessage) { s.onTransportDisconnected() })
	t.On(eventCommandAck, s.onCommandAck)

	for _, event := range s.callbacks.events() {
		if isReservedEvent(event) {
			continue
		}
		t.On(event, s.listenerFor(event))
	}
}

// listenerFor builds the thin wrapper bridging the transport's native
// event delivery into the callback registry: unwrap one "data" level if
// present, substitute an empty object for absent payloads, dispatch in
// registration order.
func (s *Socket) listenerFor(event string) func(json.RawMessage) {
	return func(raw json.RawMessage) {
		s.callbacks.dispatch(event, unwrapPayload(raw))
	}
}

func (s *Socket) onTransportConnected() {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	s.logger.Debug("transport session started")

	// Fire-and-forget: subscriber work must not block the signal handler.
	go s.callbacks.dispatch(eventConnect, nil)
}

func (s *Socket) onTransportDisconnected() {
	s.mu.Lock()
	s.connected = false
	shouldReconnect := s.shouldReconnect
	s.mu.Unlock()
	s.logger.Info("event socket disconnected", zap.Bool("reconnecting", shouldReconnect))

	s.failPending(newConnectionError("disconnected while waiting for acknowledgement", nil))

	go s.callbacks.dispatch(eventDisconnect, nil)

	if shouldReconnect {
		s.startReconnect()
	}
}

// unwrapPayload decodes a raw event payload for callback delivery. The
// device wraps some payloads one level under a "data" key; those are
// unwrapped immediately so every consumer sees one shape. Absent payloads
// become an empty object; non-object payloads are delivered under a
// "value" key.
func unwrapPayload(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return map[string]any{}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return map[string]any{"value": decoded}
	}
	if nested, present := obj["data"]; present {
		if nestedObj, isObj := nested.(map[string]any); isObj {
			return nestedObj
		}
		return map[string]any{"value": nested}
	}
	return obj
}

func isReservedEvent(event string) bool {
	switch event {
	case eventConnect, eventDisconnect, eventCommandAck:
		return true
	}
	return false
}
