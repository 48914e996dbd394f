package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"roleplaychat/internal/store"
)

// ConversationHandler manages conversations and their message history.
type ConversationHandler struct {
	db     *store.DB
	states WorldStates
	logger *slog.Logger
}

func NewConversationHandler(db *store.DB, states WorldStates, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{db: db, states: states, logger: logger}
}

type conversationRequest struct {
	CharacterID int64  `json:"character_id"`
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Scenario    string `json:"scenario"`
}

type conversationResponse struct {
	ID          int64     `json:"id"`
	CharacterID int64     `json:"character_id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Scenario    string    `json:"scenario,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type messageResponse struct {
	ID         int64     `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	SenderName string    `json:"sender_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toConversationResponse(c *store.Conversation) conversationResponse {
	return conversationResponse{
		ID:          c.ID,
		CharacterID: c.CharacterID,
		UserID:      c.UserID,
		Title:       c.Title,
		Scenario:    c.Scenario,
		CreatedAt:   c.CreatedAt,
	}
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.CharacterID == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "character_id is required.")
		return
	}

	char, err := h.db.GetCharacter(r.Context(), req.CharacterID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Character not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error loading character", "error", err, "character_id", req.CharacterID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create conversation.")
		return
	}

	title := req.Title
	if title == "" {
		title = "Chat with " + char.Name
	}

	conv := &store.Conversation{
		CharacterID: req.CharacterID,
		UserID:      req.UserID,
		Title:       title,
		Scenario:    req.Scenario,
	}
	id, err := h.db.CreateConversation(r.Context(), conv)
	if err != nil {
		h.logger.Error("Error creating conversation", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create conversation.")
		return
	}
	conv.ID = id

	h.logger.Info("Conversation created", "conversation_id", id, "character_id", req.CharacterID)
	writeJSON(w, h.logger, http.StatusCreated, toConversationResponse(conv))
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}

	conv, err := h.db.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error loading conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load conversation.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toConversationResponse(conv))
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	convs, err := h.db.ListConversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("Error listing conversations", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list conversations.")
		return
	}
	out := make([]conversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, toConversationResponse(&convs[i]))
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

type scenarioUpdateRequest struct {
	Scenario string `json:"scenario"`
}

func (h *ConversationHandler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}
	var req scenarioUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.db.UpdateConversationScenario(r.Context(), id, req.Scenario)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error updating scenario", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to update scenario.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}

	err := h.db.DeleteConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error deleting conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete conversation.")
		return
	}

	if h.states != nil {
		if err := h.states.Delete(r.Context(), id); err != nil {
			h.logger.Warn("Error deleting world state", "error", err, "conversation_id", id)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}

	messages, err := h.db.ListMessages(r.Context(), id)
	if err != nil {
		h.logger.Error("Error listing messages", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list messages.")
		return
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:         m.ID,
			Role:       m.Role,
			Content:    m.Content,
			SenderName: m.SenderName,
			CreatedAt:  m.CreatedAt,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *ConversationHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "messageID")
	if !ok {
		return
	}

	err := h.db.DeleteMessage(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Message not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error deleting message", "error", err, "message_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete message.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset clears a conversation's messages and world state, leaving a
// blank slate under the same conversation id.
func (h *ConversationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}

	if _, err := h.db.GetConversation(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return
	} else if err != nil {
		h.logger.Error("Error loading conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to reset conversation.")
		return
	}

	if err := h.db.ResetConversation(r.Context(), id); err != nil {
		h.logger.Error("Error resetting conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to reset conversation.")
		return
	}
	if h.states != nil {
		if err := h.states.Delete(r.Context(), id); err != nil {
			h.logger.Warn("Error deleting world state", "error", err, "conversation_id", id)
		}
	}

	h.logger.Info("Conversation reset", "conversation_id", id)
	w.WriteHeader(http.StatusNoContent)
}
