package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"roleplaychat/internal/services/events"
	"roleplaychat/internal/services/queue"
	"roleplaychat/internal/store"
	"roleplaychat/pkg/card"
	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/prompt"
	pkgqueue "roleplaychat/pkg/queue"
)

// historyWindow caps how much transcript feeds a single generation.
const historyWindow = 40

// ChatHandler runs the generation endpoints: character replies,
// user-side impersonation drafts, and narrator passages.
type ChatHandler struct {
	db        *store.DB
	assembler *prompt.Assembler
	jobs      queue.Enqueuer
	notifier  events.Notifier
	defaults  prompt.Settings
	logger    *slog.Logger
}

func NewChatHandler(db *store.DB, assembler *prompt.Assembler, jobs queue.Enqueuer, notifier events.Notifier, defaults prompt.Settings, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		db:        db,
		assembler: assembler,
		jobs:      jobs,
		notifier:  notifier,
		defaults:  defaults,
		logger:    logger,
	}
}

// generationSettings are the per-request overrides of the configured
// model parameters.
type generationSettings struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func (h *ChatHandler) settings(over generationSettings, userID int64) prompt.Settings {
	s := h.defaults
	if over.Model != "" {
		s.Model = over.Model
	}
	if over.Temperature != 0 {
		s.Temperature = over.Temperature
	}
	if over.MaxTokens != 0 {
		s.MaxTokens = over.MaxTokens
	}
	s.UserID = userID
	return s
}

type chatRequest struct {
	Message  string             `json:"message"`
	Tag      string             `json:"tag"`
	Settings generationSettings `json:"settings"`
}

type generationResponse struct {
	MessageID int64  `json:"message_id,omitempty"`
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// loadContext resolves the conversation, its character, and the recent
// transcript. A false return means the response is already written.
func (h *ChatHandler) loadContext(w http.ResponseWriter, r *http.Request) (*store.Conversation, *store.Character, []chat.Message, bool) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return nil, nil, nil, false
	}

	conv, err := h.db.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return nil, nil, nil, false
	}
	if err != nil {
		h.logger.Error("Error loading conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load conversation.")
		return nil, nil, nil, false
	}

	char, err := h.db.GetCharacter(r.Context(), conv.CharacterID)
	if err != nil {
		h.logger.Error("Error loading character", "error", err, "character_id", conv.CharacterID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character.")
		return nil, nil, nil, false
	}

	stored, err := h.db.RecentMessages(r.Context(), id, historyWindow)
	if err != nil {
		h.logger.Error("Error loading messages", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load messages.")
		return nil, nil, nil, false
	}
	history := make([]chat.Message, 0, len(stored))
	for _, m := range stored {
		history = append(history, chat.Message{
			Role:       m.Role,
			Content:    m.Content,
			SenderName: m.SenderName,
		})
	}
	return conv, char, history, true
}

func promptCharacter(c *store.Character) prompt.Character {
	return prompt.Character{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		PostHistory: c.PostHistory,
		CardData:    c.CardData,
	}
}

func (h *ChatHandler) publish(ctx context.Context, event events.Event) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, event); err != nil {
		h.logger.Warn("Error publishing event", "error", err, "type", event.Type)
	}
}

func (h *ChatHandler) enqueueRefresh(ctx context.Context, conv *store.Conversation, reason pkgqueue.Reason) {
	if h.jobs == nil {
		return
	}
	job := pkgqueue.NewWorldStateJob(conv.ID, conv.CharacterID, conv.UserID, reason)
	if err := h.jobs.EnqueueWorldState(ctx, job); err != nil {
		h.logger.Warn("Error enqueueing world state job", "error", err, "conversation_id", conv.ID)
	}
}

// writeGenerationError maps assembly failures onto status codes. A bad
// card is the caller's data; everything else is upstream.
func (h *ChatHandler) writeGenerationError(w http.ResponseWriter, err error, convID int64) {
	h.publishFailed(convID)
	if errors.Is(err, card.ErrInvalidData) {
		writeError(w, h.logger, http.StatusUnprocessableEntity, "Character card data is invalid.")
		return
	}
	h.logger.Error("Error generating completion", "error", err, "conversation_id", convID)
	writeError(w, h.logger, http.StatusBadGateway, "Failed to generate response. Please try again.")
}

func (h *ChatHandler) publishFailed(convID int64) {
	h.publish(context.Background(), events.Event{
		Type:           events.EventTypeGenerationFailed,
		ConversationID: convID,
	})
}

// Chat appends the user's message, generates the character's reply, and
// persists both.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'message' field.")
		return
	}
	if req.Message == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Message cannot be empty.")
		return
	}

	conv, char, history, ok := h.loadContext(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	userMsg := &store.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleUser,
		Content:        req.Message,
	}
	if _, err := h.db.AddMessage(ctx, userMsg); err != nil {
		h.logger.Error("Error saving message", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save message.")
		return
	}
	h.publish(ctx, events.Event{
		Type:           events.EventTypeMessageCreated,
		ConversationID: conv.ID,
		Data:           map[string]any{"role": chat.RoleUser},
	})
	history = append(history, chat.Message{Role: chat.RoleUser, Content: req.Message})

	h.publish(ctx, events.Event{
		Type:           events.EventTypeGenerationStarted,
		ConversationID: conv.ID,
	})

	result, err := h.assembler.Chat(ctx, prompt.Request{
		History:          history,
		Character:        promptCharacter(char),
		Settings:         h.settings(req.Settings, conv.UserID),
		UserID:           conv.UserID,
		ConversationID:   conv.ID,
		ScenarioOverride: conv.Scenario,
	}, req.Tag)
	if err != nil {
		h.writeGenerationError(w, err, conv.ID)
		return
	}

	replyMsg := &store.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
		Content:        result.Content,
		SenderName:     char.Name,
	}
	replyID, err := h.db.AddMessage(ctx, replyMsg)
	if err != nil {
		h.logger.Error("Error saving reply", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save reply.")
		return
	}

	h.publish(ctx, events.Event{
		Type:           events.EventTypeGenerationDone,
		ConversationID: conv.ID,
		Data:           map[string]any{"message_id": replyID},
	})
	h.enqueueRefresh(ctx, conv, pkgqueue.ReasonNewMessage)

	writeJSON(w, h.logger, http.StatusOK, generationResponse{
		MessageID: replyID,
		Content:   result.Content,
		Reasoning: result.Reasoning,
	})
}

type impersonateRequest struct {
	Style    string             `json:"style"`
	Settings generationSettings `json:"settings"`
}

// Impersonate drafts the user's next message. Nothing is persisted; the
// client edits the draft before sending it through Chat.
func (h *ChatHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	var req impersonateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	conv, char, history, ok := h.loadContext(w, r)
	if !ok {
		return
	}

	result, err := h.assembler.Impersonate(r.Context(), prompt.Request{
		History:          history,
		Character:        promptCharacter(char),
		Settings:         h.settings(req.Settings, conv.UserID),
		UserID:           conv.UserID,
		ConversationID:   conv.ID,
		ScenarioOverride: conv.Scenario,
	}, prompt.ImpersonateStyle(req.Style))
	if err != nil {
		h.writeGenerationError(w, err, conv.ID)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, generationResponse{
		Content:   result.Content,
		Reasoning: result.Reasoning,
	})
}
