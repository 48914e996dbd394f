package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"roleplaychat/internal/config"
	"roleplaychat/internal/logger"
	"roleplaychat/internal/services"
	"roleplaychat/internal/services/events"
	"roleplaychat/internal/services/queue"
	"roleplaychat/internal/store"
	"roleplaychat/internal/worker"
	"roleplaychat/pkg/prompt"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting roleplaychat worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"llm_provider", cfg.LLMProvider)

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
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := states.Ping(pingCtx); err != nil {
		pingCancel()
		log.Error("Failed to connect to redis", "error", err, "addr", cfg.RedisURL)
		os.Exit(1)
	}
	pingCancel()
	log.Info("Storage connections established")

	personas := services.NewPersonaService(db)
	assembler := &prompt.Assembler{
		Templates: prompt.DirSource{Root: cfg.PromptsDir()},
		Personas:  personas,
		Gateway:   gateway,
		Logs:      services.NewPromptLog(log),
		Log:       log,
	}

	w := &worker.Worker{
		Queue:       queue.NewClient(rdb, log),
		DB:          db,
		WorldStates: states,
		Personas:    personas,
		Assembler:   assembler,
		Notifier:    events.NewBroadcaster(rdb, log),
		Settings: prompt.Settings{
			Model:       cfg.ModelName(),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		Logger: log,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Worker exited")
}
