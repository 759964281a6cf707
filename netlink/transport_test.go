package netlink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newSocketServer starts a websocket endpoint that hands each accepted
// connection to serve.
func newSocketServer(t *testing.T, serve func(*websocket.Conn, *http.Request)) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn, r)
	}))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return server, wsURL
}

func TestTransportEmitAndReceive(t *testing.T) {
	_, wsURL := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization header = %q", got)
		}

		var frame wireEvent
		if err := conn.ReadJSON(&frame); err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
		if frame.Event != "command" {
			t.Errorf("server received event %q, want command", frame.Event)
		}

		var envelope commandEnvelope
		if err := json.Unmarshal(frame.Data, &envelope); err != nil {
			t.Errorf("bad command payload: %v", err)
			return
		}
		ack, _ := json.Marshal(map[string]any{"id": envelope.ID, "status": "ok"})
		_ = conn.WriteJSON(wireEvent{Event: "command_ack", Data: ack})

		// Hold the connection open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	tr := newWSTransport(wsURL, "secret", zap.NewNop())
	acks := make(chan json.RawMessage, 1)
	tr.On("command_ack", func(data json.RawMessage) { acks <- data })

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Disconnect()

	if !tr.Connected() {
		t.Error("transport does not report connected")
	}

	err := tr.Emit("command", commandEnvelope{ID: "abc", Type: "desk.stop"})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	select {
	case raw := <-acks:
		body := unwrapPayload(raw)
		if body["id"] != "abc" || body["status"] != "ok" {
			t.Errorf("unexpected ack body: %v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("acknowledgement never arrived")
	}
}

func TestTransportUnauthorizedHandshake(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	tr := newWSTransport(wsURL, "bad-token", zap.NewNop())
	err := tr.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect succeeded against a 401 endpoint")
	}
	if !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("error does not indicate the rejection: %v", err)
	}
	if !IsAuthenticationError(classifyConnectError(err)) {
		t.Errorf("rejection not classified as authentication failure: %v", err)
	}
}

func TestTransportServerDropFiresDisconnect(t *testing.T) {
	release := make(chan struct{})
	_, wsURL := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		<-release
	})

	tr := newWSTransport(wsURL, "secret", zap.NewNop())
	drops := make(chan struct{}, 1)
	tr.On(eventDisconnect, func(json.RawMessage) { drops <- struct{}{} })

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	close(release) // server handler returns and closes the connection

	select {
	case <-drops:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect never fired after server drop")
	}
	if tr.Connected() {
		t.Error("transport still reports connected after drop")
	}
}

func TestTransportDeliberateDisconnectFiresOnce(t *testing.T) {
	_, wsURL := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	tr := newWSTransport(wsURL, "secret", zap.NewNop())
	drops := make(chan struct{}, 4)
	tr.On(eventDisconnect, func(json.RawMessage) { drops <- struct{}{} })

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := tr.Disconnect(); err != nil {
		t.Logf("close returned: %v", err)
	}

	select {
	case <-drops:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect never fired")
	}

	// The read loop noticing the deliberate close must stay silent.
	select {
	case <-drops:
		t.Error("disconnect fired twice for one teardown")
	case <-time.After(100 * time.Millisecond):
	}

	if err := tr.Disconnect(); err != nil {
		t.Errorf("repeated Disconnect failed: %v", err)
	}
}

func TestTransportEmitNotConnected(t *testing.T) {
	tr := newWSTransport("ws://127.0.0.1:1/api/v1/ws", "secret", zap.NewNop())
	if err := tr.Emit("command", nil); err == nil {
		t.Error("Emit succeeded without a connection")
	}
}

func TestTransportMalformedFramesIgnored(t *testing.T) {
	_, wsURL := newSocketServer(t, func(conn *websocket.Conn, r *http.Request) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"data": {"x": 1}}`))
		valid, _ := json.Marshal(map[string]any{"height": 80})
		_ = conn.WriteJSON(wireEvent{Event: "desk.state", Data: valid})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	tr := newWSTransport(wsURL, "secret", zap.NewNop())
	states := make(chan json.RawMessage, 1)
	tr.On("desk.state", func(data json.RawMessage) { states <- data })

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Disconnect()

	select {
	case raw := <-states:
		body := unwrapPayload(raw)
		if body["height"] != float64(80) {
			t.Errorf("unexpected payload: %v", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after malformed ones never delivered")
	}
}
