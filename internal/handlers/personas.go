package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"roleplaychat/internal/store"
)

// PersonaHandler manages user personas. One persona per user is active
// at a time and names the "user" side of every prompt.
type PersonaHandler struct {
	db     *store.DB
	logger *slog.Logger
}

func NewPersonaHandler(db *store.DB, logger *slog.Logger) *PersonaHandler {
	return &PersonaHandler{db: db, logger: logger}
}

type personaRequest struct {
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarRef   string `json:"avatar_ref"`
	Active      bool   `json:"active"`
}

type personaResponse struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	Active      bool   `json:"active"`
}

func toPersonaResponse(p *store.Persona) personaResponse {
	return personaResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		AvatarRef:   p.AvatarRef,
		Active:      p.Active,
	}
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Persona name is required.")
		return
	}

	p := &store.Persona{
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		AvatarRef:   req.AvatarRef,
	}
	id, err := h.db.CreatePersona(r.Context(), p)
	if err != nil {
		h.logger.Error("Error creating persona", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create persona.")
		return
	}
	p.ID = id

	if req.Active {
		if err := h.db.SetActivePersona(r.Context(), req.UserID, id); err != nil {
			h.logger.Error("Error activating persona", "error", err, "persona_id", id)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to activate persona.")
			return
		}
		p.Active = true
	}

	h.logger.Info("Persona created", "persona_id", id, "name", p.Name)
	writeJSON(w, h.logger, http.StatusCreated, toPersonaResponse(p))
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	personas, err := h.db.ListPersonas(r.Context(), userID)
	if err != nil {
		h.logger.Error("Error listing personas", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list personas.")
		return
	}
	out := make([]personaResponse, 0, len(personas))
	for i := range personas {
		out = append(out, toPersonaResponse(&personas[i]))
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

type activateRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *PersonaHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "personaID")
	if !ok {
		return
	}
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.db.SetActivePersona(r.Context(), req.UserID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Persona not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error activating persona", "error", err, "persona_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to activate persona.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PersonaHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	p, err := h.db.ActivePersona(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "No active persona.")
		return
	}
	if err != nil {
		h.logger.Error("Error loading active persona", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load active persona.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toPersonaResponse(p))
}
