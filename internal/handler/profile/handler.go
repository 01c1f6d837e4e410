package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kindredlab/kindred/backend/internal/store"
	"github.com/kindredlab/kindred/backend/pkg/utils"
)

// Handler exposes read-only access to the stored session profiles.
type Handler struct {
	store store.Store
}

// New creates the profile handler.
func New(st store.Store) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

type profileSummary struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Interests []string `json:"interests"`
	TextCount int      `json:"textCount"`
}

// handleListProfiles lists every stored session document. A full scan, same
// as the matcher uses; the store is expected to stay small.
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}

	summaries := make([]profileSummary, 0, len(entries))
	for _, entry := range entries {
		summaries = append(summaries, profileSummary{
			ID:        entry.ID,
			Username:  entry.Document.Username,
			Interests: entry.Document.Interests,
			TextCount: len(entry.Document.Texts),
		})
	}

	utils.RespondJSON(w, http.StatusOK, summaries)
}
