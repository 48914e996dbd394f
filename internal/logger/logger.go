package logger

import (
	"log/slog"
	"os"

	"roleplaychat/internal/config"
)

// Setup builds the process logger and installs it as the slog default.
// Production gets JSON lines for log shipping, everything else gets the
// text handler.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
