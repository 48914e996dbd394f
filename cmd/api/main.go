package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"roleplaychat/internal/config"
	"roleplaychat/internal/handlers"
	"roleplaychat/internal/logger"
	"roleplaychat/internal/services"
	"roleplaychat/internal/services/events"
	"roleplaychat/internal/services/queue"
	"roleplaychat/internal/store"
	"roleplaychat/pkg/lorebook"
	"roleplaychat/pkg/prompt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting roleplaychat API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model", cfg.ModelName())

	gateway, err := services.NewGateway(cfg, log)
	if err != nil {
		log.Error("Failed to initialize LLM gateway", "error", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		log.Error("Failed to open database", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", "error", err)
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("Error closing redis connection", "error", err)
		}
	}()

	states := store.NewWorldStateStore(rdb, log)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := states.Ping(pingCtx); err != nil {
		pingCancel()
		log.Error("Failed to connect to redis", "error", err, "addr", cfg.RedisURL)
		os.Exit(1)
	}
	pingCancel()
	log.Info("Storage connections established")

	jobs := queue.NewClient(rdb, log)
	broadcaster := events.NewBroadcaster(rdb, log)
	promptLog := services.NewPromptLog(log)

	assembler := &prompt.Assembler{
		Templates:   prompt.DirSource{Root: cfg.PromptsDir()},
		Personas:    services.NewPersonaService(db),
		WorldStates: states,
		Lorebook:    lorebook.Dir{Path: cfg.LorebookDir()},
		Gateway:     gateway,
		Logs:        promptLog,
		Log:         log,
	}
	defaults := prompt.Settings{
		Model:       cfg.ModelName(),
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	router := handlers.NewRouter(handlers.Deps{
		Health:        handlers.NewHealthHandler(db, states, log),
		Characters:    handlers.NewCharacterHandler(db, log),
		Conversations: handlers.NewConversationHandler(db, states, log),
		Personas:      handlers.NewPersonaHandler(db, log),
		Chat:          handlers.NewChatHandler(db, assembler, jobs, broadcaster, defaults, log),
		WorldState:    handlers.NewWorldStateHandler(db, states, jobs, log),
		Prompts:       handlers.NewPromptHandler(cfg.PromptsDir(), promptLog, log),
		Scenarios:     handlers.NewScenarioHandler(cfg.ScenariosDir(), log),
		Events:        handlers.NewEventsHandler(broadcaster, log),
		Logger:        log,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream endpoint holds connections
		// open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
