package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL   string
	SQLitePath string

	// DataDir holds author-editable content: prompt templates,
	// lorebooks, scenarios.
	DataDir string

	// LLMProvider selects the gateway implementation: "anthropic",
	// "openai", or "mock".
	LLMProvider string

	AnthropicAPIKey string
	AnthropicModel  string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	Temperature float64
	MaxTokens   int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL:   getEnv("REDIS_URL", "localhost:6379"),
		SQLitePath: getEnv("SQLITE_PATH", "roleplaychat.db"),
		DataDir:    getEnv("DATA_DIR", "data"),

		LLMProvider: getEnv("LLM_PROVIDER", "anthropic"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
	}
}

// ModelName is the default model for the configured provider.
func (c *Config) ModelName() string {
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		return c.OpenAIModel
	case "mock":
		return "mock"
	}
	return c.AnthropicModel
}

// PromptsDir is where template files are read from on every assembly.
func (c *Config) PromptsDir() string {
	return filepath.Join(c.DataDir, "prompts")
}

// LorebookDir is the keyword-triggered lore entry directory.
func (c *Config) LorebookDir() string {
	return filepath.Join(c.DataDir, "lorebook")
}

// ScenariosDir holds scenario override files.
func (c *Config) ScenariosDir() string {
	return filepath.Join(c.DataDir, "scenarios")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
