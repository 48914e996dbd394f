package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dchest/uniuri"

	"roleplaychat/pkg/chat"
)

const logsPerTag = 5

// PromptLogEntry is one recorded prompt/response pair.
type PromptLogEntry struct {
	ID          string         `json:"id"`
	Tag         string         `json:"tag"`
	SubjectName string         `json:"subject_name"`
	UserName    string         `json:"user_name"`
	Messages    []chat.Message `json:"messages"`
	Response    string         `json:"response,omitempty"`
	Model       string         `json:"model,omitempty"`
	TotalTokens int            `json:"total_tokens,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PromptLog keeps the last few prompts and responses per tag in memory
// for debugging. All methods are fire-and-forget from the caller's view:
// nothing here can fail a generation.
type PromptLog struct {
	mu      sync.Mutex
	entries map[string][]*PromptLogEntry
	logger  *slog.Logger
}

func NewPromptLog(logger *slog.Logger) *PromptLog {
	return &PromptLog{
		entries: make(map[string][]*PromptLogEntry),
		logger:  logger,
	}
}

// LogPrompt records an outgoing prompt and returns its log id.
func (l *PromptLog) LogPrompt(messages []chat.Message, tag, subjectName, userName string) string {
	entry := &PromptLogEntry{
		ID:          uniuri.New(),
		Tag:         tag,
		SubjectName: subjectName,
		UserName:    userName,
		Messages:    messages,
		CreatedAt:   time.Now().UTC(),
	}

	l.mu.Lock()
	perTag := append(l.entries[tag], entry)
	if len(perTag) > logsPerTag {
		perTag = perTag[len(perTag)-logsPerTag:]
	}
	l.entries[tag] = perTag
	l.mu.Unlock()

	return entry.ID
}

// LogResponse attaches the model reply to a previously logged prompt.
// An unknown id (already rotated out) is ignored.
func (l *PromptLog) LogResponse(raw, normalized, tag, logID string, resp *chat.CompletionResponse) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries[tag] {
		if entry.ID == logID {
			entry.Response = normalized
			if resp != nil {
				entry.Model = resp.Model
				if resp.Usage != nil {
					entry.TotalTokens = resp.Usage.TotalTokens
				}
			}
			return
		}
	}
}

// Entries returns the recorded log for a tag, oldest first. An empty tag
// returns every entry.
func (l *PromptLog) Entries(tag string) []*PromptLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tag != "" {
		out := make([]*PromptLogEntry, len(l.entries[tag]))
		copy(out, l.entries[tag])
		return out
	}
	var out []*PromptLogEntry
	for _, perTag := range l.entries {
		out = append(out, perTag...)
	}
	return out
}
