package chat

import "fmt"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleNarrator  = "narrator"
)

// Message is a single turn in a conversation. SenderName is set for
// assistant turns in multi-character scenes, where the speaker is not
// implied by the role alone.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	SenderName string `json:"sender_name,omitempty"`
}

// PromptResult is the normalized output of any generation call,
// independent of which assembler produced it.
type PromptResult struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Usage reports token consumption as returned by the LLM provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the gateway-facing request contract.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	UserID      int64     `json:"user_id,omitempty"`
}

// CompletionResponse is the gateway-facing response contract.
type CompletionResponse struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
	Model     string `json:"model"`
	Usage     *Usage `json:"usage,omitempty"`
}

func (r *CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}
	if r.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	return nil
}
