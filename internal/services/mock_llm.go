package services

import (
	"context"
	"sync"

	"roleplaychat/pkg/chat"
)

// MockGateway is a canned-response gateway for local development and
// tests. It records every request it receives.
type MockGateway struct {
	mu       sync.Mutex
	requests []chat.CompletionRequest

	// Response is returned for every call when set. Err wins over it.
	Response *chat.CompletionResponse
	Err      error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Complete(_ context.Context, req chat.CompletionRequest) (*chat.CompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return &chat.CompletionResponse{
		Content: "This is a mock response.",
		Model:   "mock",
		Usage:   &chat.Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2},
	}, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockGateway) Requests() []chat.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or nil when none were
// made.
func (m *MockGateway) LastRequest() *chat.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}
