package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	dialoguesvc "github.com/kindredlab/kindred/backend/internal/service/dialogue"
	insightssvc "github.com/kindredlab/kindred/backend/internal/service/insights"
	"github.com/kindredlab/kindred/backend/internal/service/match"
	sessionsvc "github.com/kindredlab/kindred/backend/internal/service/session"
	"github.com/kindredlab/kindred/backend/internal/store"
)

func dialTestServer(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()

	st := store.NewMemoryStore()

	dialogueSvc, err := dialoguesvc.NewService(context.Background(), nil, dialoguesvc.Config{})
	if err != nil {
		t.Fatalf("dialogue service: %v", err)
	}
	insightsSvc, err := insightssvc.NewService(context.Background(), nil, insightssvc.Config{MinWords: 5})
	if err != nil {
		t.Fatalf("insights service: %v", err)
	}

	orchestrator := conversationsvc.NewOrchestrator(
		dialogueSvc, nil, insightsSvc,
		sessionsvc.NewService(st), match.NewMatcher(st), st,
	)

	r := chi.NewRouter()
	New(orchestrator).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()

	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg
}

func TestWebSocketTurnRoundTrip(t *testing.T) {
	conn := dialTestServer(t, "sess-ws")

	connected := readFrame(t, conn)
	if connected.Type != "result" {
		t.Fatalf("expected a result frame, got %q", connected.Type)
	}

	err := conn.WriteJSON(map[string]any{
		"type":      "text",
		"sessionId": "sess-ws",
		"data":      map[string]string{"text": "hello"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	reply := readFrame(t, conn)
	if reply.Type != "result" {
		t.Fatalf("expected a result frame, got %q", reply.Type)
	}
	data, ok := reply.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %v", reply.Data)
	}
	if data["type"] != "reply" {
		t.Fatalf("expected a reply payload, got %v", data["type"])
	}
	if text, _ := data["text"].(string); text == "" {
		t.Fatal("expected a non-empty reply text")
	}
}

func TestWebSocketRejectsSessionMismatch(t *testing.T) {
	conn := dialTestServer(t, "sess-a")

	readFrame(t, conn) // connected

	err := conn.WriteJSON(map[string]any{
		"type":      "text",
		"sessionId": "sess-b",
		"data":      map[string]string{"text": "hello"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected an error frame, got %q", frame.Type)
	}
}

func TestWebSocketRejectsUnknownType(t *testing.T) {
	conn := dialTestServer(t, "sess-c")

	readFrame(t, conn) // connected

	if err := conn.WriteJSON(map[string]any{"type": "audio"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, conn)
	if frame.Type != "error" {
		t.Fatalf("expected an error frame, got %q", frame.Type)
	}
}
