package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tejaspachgade2315/Voosh/internal/handlers"
	"github.com/tejaspachgade2315/Voosh/internal/platform/envutil"
	"github.com/tejaspachgade2315/Voosh/internal/platform/gemini"
	"github.com/tejaspachgade2315/Voosh/internal/platform/jina"
	"github.com/tejaspachgade2315/Voosh/internal/platform/kv"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
	"github.com/tejaspachgade2315/Voosh/internal/server"
	"github.com/tejaspachgade2315/Voosh/internal/services"
	"github.com/tejaspachgade2315/Voosh/internal/vectorindex"
)

func main() {
	_ = godotenv.Load()

	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// KV store: redis when reachable, in-memory otherwise. Fixed for the
	// process lifetime.
	store := kv.Open(log)
	defer store.Close()

	// Embedding: remote client with a local deterministic fallback of the
	// same dimensionality.
	embedDim := envutil.Int("EMBED_DIM", 768)
	local := jina.NewLocalEmbedder(embedDim)
	remote, err := jina.NewClient(log)
	if err != nil {
		log.Warn("embedding API client unavailable, local fallback only", "error", err)
	}
	embedder := jina.WithFallback(log, remote, local)

	// Vector index
	index, err := vectorindex.New(log, embedder, envutil.String("INDEX_PATH", "data/vector_index.json"))
	if err != nil {
		log.Error("Could not init vector index", "error", err)
		os.Exit(1)
	}
	log.Info("vector index ready", "documents", index.Size(), "dim", index.Dim())

	// Generation
	genai, err := gemini.NewClient(log)
	if err != nil {
		log.Error("Could not init generation client", "error", err)
		os.Exit(1)
	}

	// Services
	sessionTTL := envutil.Seconds("SESSION_TTL_SECONDS", 24*time.Hour)
	sessionService, err := services.NewSessionService(log, store, sessionTTL)
	if err != nil {
		log.Error("Could not init SessionService", "error", err)
		os.Exit(1)
	}
	chatService, err := services.NewChatService(log, sessionService, index, genai)
	if err != nil {
		log.Error("Could not init ChatService", "error", err)
		os.Exit(1)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(chatService, store.Backend())
	sessionHandler := handlers.NewSessionHandler(log, sessionService)
	chatHandler := handlers.NewChatHandler(log, chatService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		HealthHandler:  healthHandler,
		SessionHandler: sessionHandler,
		ChatHandler:    chatHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("server listening", "port", port, "kv_backend", store.Backend())
	if err := router.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
	}
}
