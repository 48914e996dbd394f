package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"roleplaychat/internal/services/queue"
	"roleplaychat/internal/store"
	pkgqueue "roleplaychat/pkg/queue"
	"roleplaychat/pkg/worldstate"
)

// WorldStates is the handler-facing slice of the world-state store.
type WorldStates interface {
	Get(ctx context.Context, conversationID int64) (worldstate.Document, error)
	Put(ctx context.Context, conversationID int64, doc worldstate.Document) error
	Delete(ctx context.Context, conversationID int64) error
}

// WorldStateHandler reads, overwrites, and refreshes per-conversation
// world state.
type WorldStateHandler struct {
	db     *store.DB
	states WorldStates
	jobs   queue.Enqueuer
	logger *slog.Logger
}

func NewWorldStateHandler(db *store.DB, states WorldStates, jobs queue.Enqueuer, logger *slog.Logger) *WorldStateHandler {
	return &WorldStateHandler{db: db, states: states, jobs: jobs, logger: logger}
}

func (h *WorldStateHandler) conversation(w http.ResponseWriter, r *http.Request) (*store.Conversation, bool) {
	id, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return nil, false
	}
	conv, err := h.db.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Conversation not found.")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Error loading conversation", "error", err, "conversation_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load conversation.")
		return nil, false
	}
	return conv, true
}

// Get returns the stored document, or the default document when none has
// been generated yet. A conversation always has presentable state.
func (h *WorldStateHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	doc, err := h.states.Get(r.Context(), conv.ID)
	if err != nil {
		h.logger.Error("Error loading world state", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world state.")
		return
	}
	if doc == nil {
		doc = worldstate.DefaultDocument()
	}
	writeJSON(w, h.logger, http.StatusOK, doc)
}

// Put replaces the stored document with a caller-supplied one. This is
// the manual-edit path; the generated path goes through the worker.
func (h *WorldStateHandler) Put(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	var doc worldstate.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid world state document.")
		return
	}

	if err := h.states.Put(r.Context(), conv.ID, doc); err != nil {
		h.logger.Error("Error saving world state", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save world state.")
		return
	}

	h.logger.Info("World state replaced", "conversation_id", conv.ID)
	writeJSON(w, h.logger, http.StatusOK, doc)
}

// Refresh enqueues a regeneration job for the worker. The reply is
// accepted-only; the refreshed document arrives via the event stream.
func (h *WorldStateHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversation(w, r)
	if !ok {
		return
	}

	job := pkgqueue.NewWorldStateJob(conv.ID, conv.CharacterID, conv.UserID, pkgqueue.ReasonManualRefresh)
	if err := h.jobs.EnqueueWorldState(r.Context(), job); err != nil {
		h.logger.Error("Error enqueueing refresh", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue refresh.")
		return
	}

	h.logger.Info("World state refresh enqueued", "conversation_id", conv.ID, "job_id", job.JobID)
	writeJSON(w, h.logger, http.StatusAccepted, map[string]string{"job_id": job.JobID})
}
