package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tank-arena/internal/game"

	"github.com/gorilla/websocket"
)

func startTestHub(t *testing.T, engine *mockEngine, token string) (*Server, string) {
	t.Helper()
	srv := NewServer(engine, Options{
		ControlToken:      token,
		BroadcastInterval: 10 * time.Millisecond,
		RateLimit:         *testRateLimit,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Hub().Run(ctx)
		close(done)
	}()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial failed (status %d): %v", status, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env.Event, env.Data
}

// TestWebSocketInput verifies client input reaches the engine
func TestWebSocketInput(t *testing.T) {
	engine := newMockEngine()
	srv, url := startTestHub(t, engine, "")
	conn := dial(t, url, nil)
	waitFor(t, "registration", func() bool { return srv.Hub().ClientCount() == 1 })

	msg := `{"type":"input","input":{"left":true,"lookDelta":-0.2}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "input command", func() bool { return len(engine.submitted()) == 1 })

	cmd := engine.submitted()[0]
	if cmd.Kind != game.CommandInput || !cmd.Input.Left || cmd.Input.LookDelta != -0.2 {
		t.Errorf("unexpected command %+v", cmd)
	}
}

// TestWebSocketRejectsUnknownType verifies bad messages get an error reply
func TestWebSocketRejectsUnknownType(t *testing.T) {
	engine := newMockEngine()
	srv, url := startTestHub(t, engine, "")
	conn := dial(t, url, nil)
	waitFor(t, "registration", func() bool { return srv.Hub().ClientCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	event, data := readEnvelope(t, conn)
	if event != EventError || !strings.Contains(string(data), "unknown message type") {
		t.Errorf("unexpected reply %s %s", event, data)
	}
	if len(engine.submitted()) != 0 {
		t.Error("no command should be queued")
	}
}

// TestWebSocketControlToken verifies input needs the token when one is set
func TestWebSocketControlToken(t *testing.T) {
	engine := newMockEngine()
	srv, url := startTestHub(t, engine, "s3cret")

	viewer := dial(t, url, nil)
	waitFor(t, "viewer registration", func() bool { return srv.Hub().ClientCount() == 1 })
	if err := viewer.WriteMessage(websocket.TextMessage, []byte(`{"type":"input","input":{"fire":true}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if event, _ := readEnvelope(t, viewer); event != EventError {
		t.Errorf("viewer input should be refused, got %s", event)
	}

	driver := dial(t, url+"?token=s3cret", nil)
	waitFor(t, "driver registration", func() bool { return srv.Hub().ClientCount() == 2 })
	if err := driver.WriteMessage(websocket.TextMessage, []byte(`{"type":"input","input":{"fire":true}}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "driver input", func() bool { return len(engine.submitted()) == 1 })
}

// TestWebSocketBroadcastSkipsDuplicates verifies an unchanged snapshot is
// sent once
func TestWebSocketBroadcastSkipsDuplicates(t *testing.T) {
	engine := newMockEngine()
	hub := NewWebSocketHub(engine, NewOriginPolicy(nil), nil, nil)

	if !hub.broadcastSnapshot() {
		t.Fatal("first snapshot should be queued")
	}
	if hub.broadcastSnapshot() {
		t.Error("identical snapshot should be skipped")
	}
	engine.setTick(8)
	if !hub.broadcastSnapshot() {
		t.Error("changed snapshot should be queued")
	}
	if got := len(hub.broadcast); got != 2 {
		t.Errorf("expected 2 queued messages, got %d", got)
	}
}

// TestWebSocketStateBroadcast verifies connected clients receive snapshots
func TestWebSocketStateBroadcast(t *testing.T) {
	engine := newMockEngine()
	srv, url := startTestHub(t, engine, "")
	conn := dial(t, url, nil)
	waitFor(t, "registration", func() bool { return srv.Hub().ClientCount() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Hub().RunBroadcastLoop(ctx, 10*time.Millisecond) }()

	event, data := readEnvelope(t, conn)
	if event != EventState {
		t.Fatalf("expected %s, got %s", EventState, event)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.SessionID != "session-1" {
		t.Errorf("unexpected session %q", snap.SessionID)
	}
}

// TestWebSocketOriginRejected verifies the origin policy on the handshake
func TestWebSocketOriginRejected(t *testing.T) {
	engine := newMockEngine()
	srv := NewServer(engine, Options{
		AllowedOrigins: []string{"https://arena.example"},
		RateLimit:      *testRateLimit,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Hub().Run(ctx) }()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}
