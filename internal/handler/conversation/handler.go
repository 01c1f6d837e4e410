package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dialoguemodel "github.com/kindredlab/kindred/backend/internal/model/dialogue"
	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	"github.com/kindredlab/kindred/backend/pkg/utils"
)

// Handler exposes the turn endpoint.
type Handler struct {
	orchestrator *conversationsvc.Orchestrator
}

// New creates the conversation handler.
func New(orchestrator *conversationsvc.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// RegisterRoutes registers the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/message", h.handleMessage)
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Input     struct {
		Text string `json:"text"`
	} `json:"input"`
	Context map[string]any `json:"context"`
}

// handleMessage processes one conversation turn. A missing sessionId starts
// a new session.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SessionID == "" {
		payload.SessionID = uuid.NewString()
	}

	turn := dialoguemodel.Turn{
		SessionID: payload.SessionID,
		Input:     dialoguemodel.Input{Text: payload.Input.Text},
		Context:   payload.Context,
	}

	result, err := h.orchestrator.HandleTurn(r.Context(), turn)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "conversation turn failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
