package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	conversationhandler "github.com/kindredlab/kindred/backend/internal/handler/conversation"
	profilehandler "github.com/kindredlab/kindred/backend/internal/handler/profile"
	"github.com/kindredlab/kindred/backend/internal/handler/stream"
	"github.com/kindredlab/kindred/backend/internal/handler/ws"
	middlewarePkg "github.com/kindredlab/kindred/backend/internal/middleware"
	"github.com/kindredlab/kindred/backend/internal/observability"
	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	"github.com/kindredlab/kindred/backend/internal/store"
	"github.com/kindredlab/kindred/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(orchestrator *conversationsvc.Orchestrator, st store.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	conversationHandler := conversationhandler.New(orchestrator)
	profileHandler := profilehandler.New(st)
	streamHandler := stream.New(orchestrator)
	wsHandler := ws.New(orchestrator)

	r.Route("/api", func(api chi.Router) {
		conversationHandler.RegisterRoutes(api)
		profileHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			utils.RespondError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Method(http.MethodGet, "/metrics", observability.Handler())

	return r
}
