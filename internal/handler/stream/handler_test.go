package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	dialoguesvc "github.com/kindredlab/kindred/backend/internal/service/dialogue"
	insightssvc "github.com/kindredlab/kindred/backend/internal/service/insights"
	"github.com/kindredlab/kindred/backend/internal/service/match"
	sessionsvc "github.com/kindredlab/kindred/backend/internal/service/session"
	"github.com/kindredlab/kindred/backend/internal/store"
)

func newHandler(t *testing.T) *Handler {
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
	return New(orchestrator)
}

func TestStreamEmitsEventSequence(t *testing.T) {
	h := newHandler(t)
	resp := httptest.NewRecorder()

	if err := h.HandleStreamRequest(context.Background(), resp, "sess-1", "hello"); err != nil {
		t.Fatalf("stream request failed: %v", err)
	}

	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	body := resp.Body.String()
	for _, event := range []string{`"event":"start"`, `"event":"message"`, `"event":"end"`} {
		if !strings.Contains(body, event) {
			t.Fatalf("expected %s in stream, got:\n%s", event, body)
		}
	}
}

func TestStreamKeepsContextBetweenTurns(t *testing.T) {
	h := newHandler(t)

	first := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), first, "sess-ctx", "hi"); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	second := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), second, "sess-ctx", "my name is alice"); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	ctx := h.loadContext("sess-ctx")
	if ctx == nil {
		t.Fatal("expected a saved context")
	}
	if ctx["username"] != "Alice" {
		t.Fatalf("expected username Alice in context, got %v", ctx["username"])
	}
}

func TestStreamForgetsContextWhenConversationEnds(t *testing.T) {
	h := newHandler(t)

	h.saveContext("sess-done", map[string]any{"stage": "interests"}, false)
	if h.loadContext("sess-done") == nil {
		t.Fatal("expected context to be saved")
	}

	h.saveContext("sess-done", map[string]any{"stage": "interests"}, true)
	if h.loadContext("sess-done") != nil {
		t.Fatal("expected context to be dropped after the conversation ended")
	}
}
