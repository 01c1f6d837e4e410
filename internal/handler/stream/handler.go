package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	dialoguemodel "github.com/kindredlab/kindred/backend/internal/model/dialogue"
	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	"github.com/kindredlab/kindred/backend/pkg/utils"
)

// Handler serves conversation turns over Server-Sent Events so frontends
// can render the reply, tone, and match result as separate events.
//
// SSE clients cannot echo the conversation context back the way the JSON
// endpoint's clients do, so the handler keeps the context per session
// between requests.
type Handler struct {
	orchestrator *conversationsvc.Orchestrator

	mu       sync.Mutex
	contexts map[string]map[string]any
}

// New creates the stream handler.
func New(orchestrator *conversationsvc.Orchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		contexts:     make(map[string]map[string]any),
	}
}

// StreamResponse is one SSE chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   any    `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest processes one turn and streams the result events.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	result, err := h.orchestrator.HandleTurn(ctx, dialoguemodel.Turn{
		SessionID: sessionID,
		Input:     dialoguemodel.Input{Text: userMessage},
		Context:   h.loadContext(sessionID),
	})
	if err != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return err
	}
	h.saveContext(sessionID, result.Context, result.Output.End)

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "message", SessionID: sessionID, Content: result.Output.Text})

	if result.Tone != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "tone", SessionID: sessionID, Content: result.Tone})
	}
	if result.Match != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "match", SessionID: sessionID, Content: result.Match})
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "end", SessionID: sessionID, Finished: true})
	return nil
}

func (h *Handler) loadContext(sessionID string) map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.contexts[sessionID]
}

// saveContext remembers the context for the next turn and forgets it once
// the conversation has concluded.
func (h *Handler) saveContext(sessionID string, ctx map[string]any, ended bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ended {
		delete(h.contexts, sessionID)
		return
	}
	h.contexts[sessionID] = ctx
}
