package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"roleplaychat/pkg/chat"
)

const (
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 1024

	msgNoResponse = "(no response)"
)

// OpenAIGateway submits completions to an OpenAI-compatible chat
// completions endpoint. The configurable base URL covers the hosted API
// and self-hosted compatible servers alike.
type OpenAIGateway struct {
	baseURL    string
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream"`
	User        string          `json:"user,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		// Some compatible providers surface chain-of-thought here.
		ReasoningContent string `json:"reasoning_content,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAIChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func NewOpenAIGateway(baseURL, apiKey, modelName string, logger *slog.Logger) *OpenAIGateway {
	return &OpenAIGateway{
		baseURL:   baseURL,
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

func (o *OpenAIGateway) Complete(ctx context.Context, req chat.CompletionRequest) (*chat.CompletionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	messages := make([]openAIMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		// The API only accepts system, user, and assistant roles.
		if role == chat.RoleNarrator {
			role = chat.RoleSystem
		}
		messages = append(messages, openAIMessage{Role: role, Content: m.Content})
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultOpenAITemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultOpenAIMaxTokens
	}
	model := req.Model
	if model == "" {
		model = o.modelName
	}

	var user string
	if req.UserID != 0 {
		user = fmt.Sprintf("user-%d", req.UserID)
	}

	openAIReq := openAIChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
		User:        user,
	}

	reqBody, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var openAIResp openAIChatResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if openAIResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return &chat.CompletionResponse{Content: msgNoResponse, Model: openAIResp.Model}, nil
	}

	choice := openAIResp.Choices[0]
	content := choice.Message.Content
	if content == "" {
		content = msgNoResponse
	}

	return &chat.CompletionResponse{
		Content:   content,
		Reasoning: choice.Message.ReasoningContent,
		Model:     openAIResp.Model,
		Usage: &chat.Usage{
			PromptTokens:     openAIResp.Usage.PromptTokens,
			CompletionTokens: openAIResp.Usage.CompletionTokens,
			TotalTokens:      openAIResp.Usage.TotalTokens,
		},
	}, nil
}
