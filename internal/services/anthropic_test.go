package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roleplaychat/pkg/chat"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAnthropicGateway(t *testing.T) {
	g := NewAnthropicGateway("test-api-key", "claude-sonnet-4-20250514", testLogger())

	if g.apiKey != "test-api-key" {
		t.Errorf("Expected API key test-api-key, got %s", g.apiKey)
	}
	if g.modelName != "claude-sonnet-4-20250514" {
		t.Errorf("Expected model claude-sonnet-4-20250514, got %s", g.modelName)
	}
	if g.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

func TestSplitMessages(t *testing.T) {
	tests := []struct {
		name           string
		messages       []chat.Message
		expectedSystem string
		expectedRoles  []string
	}{
		{
			name: "single system message",
			messages: []chat.Message{
				{Role: chat.RoleSystem, Content: "You are Aria."},
				{Role: chat.RoleUser, Content: "Hello"},
				{Role: chat.RoleAssistant, Content: "Hi there!"},
			},
			expectedSystem: "You are Aria.",
			expectedRoles:  []string{"user", "assistant"},
		},
		{
			name: "multiple system messages fold together",
			messages: []chat.Message{
				{Role: chat.RoleSystem, Content: "You are Aria."},
				{Role: chat.RoleUser, Content: "Hello"},
				{Role: chat.RoleSystem, Content: "Stay in character."},
			},
			expectedSystem: "You are Aria.\n\nStay in character.",
			expectedRoles:  []string{"user"},
		},
		{
			name: "narrator becomes a user turn",
			messages: []chat.Message{
				{Role: chat.RoleNarrator, Content: "Rain starts."},
				{Role: chat.RoleAssistant, Content: "Aria looks up."},
			},
			expectedSystem: "",
			expectedRoles:  []string{"user", "assistant"},
		},
		{
			name: "system-only prompt gets a continuation turn",
			messages: []chat.Message{
				{Role: chat.RoleSystem, Content: "You are Aria."},
			},
			expectedSystem: "You are Aria.",
			expectedRoles:  []string{"user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, rest := splitMessages(tt.messages)
			if system != tt.expectedSystem {
				t.Errorf("Expected system %q, got %q", tt.expectedSystem, system)
			}
			if len(rest) != len(tt.expectedRoles) {
				t.Fatalf("Expected %d messages, got %d", len(tt.expectedRoles), len(rest))
			}
			for i, role := range tt.expectedRoles {
				if rest[i].Role != role {
					t.Errorf("Message %d: expected role %q, got %q", i, role, rest[i].Role)
				}
			}
		})
	}
}

func TestAnthropicComplete(t *testing.T) {
	var captured anthropicChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("Expected x-api-key test-key, got %s", got)
		}
		if got := r.Header.Get("anthropic-version"); got != anthropicVersion {
			t.Errorf("Expected anthropic-version %s, got %s", anthropicVersion, got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"id": "msg_01ABC123",
			"type": "message",
			"role": "assistant",
			"content": [
				{"type": "thinking", "thinking": "She would tease him here."},
				{"type": "text", "text": "Well met, "},
				{"type": "text", "text": "traveler."}
			],
			"model": "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 20}
		}`))
	}))
	defer server.Close()

	g := NewAnthropicGateway("test-key", "claude-sonnet-4-20250514", testLogger())
	g.baseURL = server.URL

	resp, err := g.Complete(context.Background(), chat.CompletionRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "You are Aria."},
			{Role: chat.RoleUser, Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if captured.System != "You are Aria." {
		t.Errorf("Expected system prompt to be folded out, got %q", captured.System)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Errorf("Expected a single user message, got %+v", captured.Messages)
	}

	if resp.Content != "Well met, traveler." {
		t.Errorf("Expected text blocks joined, got %q", resp.Content)
	}
	if resp.Reasoning != "She would tease him here." {
		t.Errorf("Expected thinking block as reasoning, got %q", resp.Reasoning)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 30 {
		t.Errorf("Expected usage total 30, got %+v", resp.Usage)
	}
}

func TestAnthropicCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	}))
	defer server.Close()

	g := NewAnthropicGateway("test-key", "claude-sonnet-4-20250514", testLogger())
	g.baseURL = server.URL

	_, err := g.Complete(context.Background(), chat.CompletionRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello"}},
	})
	if err == nil {
		t.Fatal("Expected an error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected status in error, got %v", err)
	}
}

func TestAnthropicCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "msg_01ABC123",
			"content": [],
			"model": "claude-sonnet-4-20250514",
			"usage": {"input_tokens": 1, "output_tokens": 0}
		}`))
	}))
	defer server.Close()

	g := NewAnthropicGateway("test-key", "claude-sonnet-4-20250514", testLogger())
	g.baseURL = server.URL

	resp, err := g.Complete(context.Background(), chat.CompletionRequest{
		Model:    "claude-sonnet-4-20250514",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Content != "(no response)" {
		t.Errorf("Expected placeholder content, got %q", resp.Content)
	}
}

func TestAnthropicCompleteInvalidRequest(t *testing.T) {
	g := NewAnthropicGateway("test-key", "claude-sonnet-4-20250514", testLogger())

	_, err := g.Complete(context.Background(), chat.CompletionRequest{})
	if err == nil {
		t.Fatal("Expected a validation error for an empty request")
	}
}
