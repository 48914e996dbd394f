// Package services holds the LLM gateways, prompt logging, and persona
// resolution behind the assembler's collaborator interfaces.
package services

import (
	"fmt"
	"log/slog"
	"strings"

	"roleplaychat/internal/config"
	"roleplaychat/pkg/prompt"
)

// NewGateway builds the configured LLM gateway.
func NewGateway(cfg *config.Config, logger *slog.Logger) (prompt.Gateway, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return NewAnthropicGateway(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIGateway(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger), nil
	case "mock":
		return NewMockGateway(), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
}
