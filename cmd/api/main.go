package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/kindredlab/kindred/backend/internal/config"
	"github.com/kindredlab/kindred/backend/internal/handler"
	conversationsvc "github.com/kindredlab/kindred/backend/internal/service/conversation"
	dialoguesvc "github.com/kindredlab/kindred/backend/internal/service/dialogue"
	insightssvc "github.com/kindredlab/kindred/backend/internal/service/insights"
	"github.com/kindredlab/kindred/backend/internal/service/match"
	sessionsvc "github.com/kindredlab/kindred/backend/internal/service/session"
	tonesvc "github.com/kindredlab/kindred/backend/internal/service/tone"
	"github.com/kindredlab/kindred/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	st := newStore(cfg.Store)
	defer st.Close()

	// Initialize the chat model shared by dialogue, tone, and insights.
	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with the scripted dialogue engine")
			chatModel = nil
		} else {
			log.Println("chat model initialized successfully")
		}
	} else {
		log.Println("ark credentials not configured, using the scripted dialogue engine")
	}

	dialogueSvc, err := dialoguesvc.NewService(ctx, chatModel, dialoguesvc.Config{Enabled: chatModel != nil})
	if err != nil {
		log.Fatalf("failed to initialize dialogue service: %v", err)
	}

	toneSvc, err := tonesvc.NewService(ctx, chatModel, tonesvc.Config{
		Enabled:     cfg.Tone.LLMEnabled,
		KeepHistory: cfg.Tone.KeepHistory,
	})
	if err != nil {
		log.Fatalf("failed to initialize tone service: %v", err)
	}
	if toneSvc.Enabled() {
		log.Println("tone classifier using the chat model")
	} else if cfg.Tone.LLMEnabled {
		log.Println("tone classifier requested but chat model unavailable, falling back to heuristics")
	}

	insightsSvc, err := insightssvc.NewService(ctx, chatModel, insightssvc.Config{
		Enabled:  cfg.Insights.LLMEnabled,
		MinWords: cfg.Insights.MinWords,
	})
	if err != nil {
		log.Fatalf("failed to initialize insights service: %v", err)
	}
	if insightsSvc.Enabled() {
		log.Println("trait inference using the chat model")
	} else if cfg.Insights.LLMEnabled {
		log.Println("trait inference requested but chat model unavailable, falling back to heuristics")
	}

	sessions := sessionsvc.NewService(st)
	matcher := match.NewMatcher(st)
	orchestrator := conversationsvc.NewOrchestrator(dialogueSvc, toneSvc, insightsSvc, sessions, matcher, st)

	router := handler.NewRouter(orchestrator, st)

	startServer(ctx, cfg.Server, router)
}

// newStore selects the session store: Redis when configured, otherwise the
// in-process memory store.
func newStore(cfg config.StoreConfig) store.Store {
	if !cfg.Enabled() {
		log.Println("REDIS_ADDR not set, using the in-memory session store")
		return store.NewMemoryStore()
	}

	st, err := store.NewRedisStore(store.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.Prefix,
		TTL:      cfg.TTL,
	})
	if err != nil {
		log.Fatalf("failed to initialize redis store: %v", err)
	}

	log.Printf("using redis session store at %s", cfg.RedisAddr)
	return st
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Kindred backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
