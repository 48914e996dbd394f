package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"roleplaychat/internal/store"
	"roleplaychat/pkg/card"
)

// CharacterHandler manages the character roster.
type CharacterHandler struct {
	db     *store.DB
	logger *slog.Logger
}

func NewCharacterHandler(db *store.DB, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{db: db, logger: logger}
}

type characterRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PostHistory string          `json:"post_history"`
	CardData    json.RawMessage `json:"card_data"`
}

type characterResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PostHistory string          `json:"post_history,omitempty"`
	CardData    json.RawMessage `json:"card_data,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toCharacterResponse(c *store.Character) characterResponse {
	return characterResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		PostHistory: c.PostHistory,
		CardData:    json.RawMessage(c.CardData),
		CreatedAt:   c.CreatedAt,
	}
}

// decodeCharacter validates the body far enough that generation will not
// choke on the stored card later.
func (h *CharacterHandler) decodeCharacter(w http.ResponseWriter, r *http.Request) (*store.Character, bool) {
	var req characterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return nil, false
	}

	cardData := []byte(req.CardData)
	if len(cardData) == 0 {
		cardData = []byte("{}")
	}
	fields, err := card.Parse(cardData)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid character card data.")
		return nil, false
	}

	name := req.Name
	if name == "" {
		name = fields.Name
	}
	if name == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Character name is required.")
		return nil, false
	}

	return &store.Character{
		Name:        name,
		Description: req.Description,
		PostHistory: req.PostHistory,
		CardData:    cardData,
	}, true
}

func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.decodeCharacter(w, r)
	if !ok {
		return
	}

	id, err := h.db.CreateCharacter(r.Context(), c)
	if err != nil {
		h.logger.Error("Error creating character", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create character.")
		return
	}
	c.ID = id

	h.logger.Info("Character created", "character_id", id, "name", c.Name)
	writeJSON(w, h.logger, http.StatusCreated, toCharacterResponse(c))
}

func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "characterID")
	if !ok {
		return
	}

	c, err := h.db.GetCharacter(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Character not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error loading character", "error", err, "character_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load character.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toCharacterResponse(c))
}

func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	chars, err := h.db.ListCharacters(r.Context())
	if err != nil {
		h.logger.Error("Error listing characters", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list characters.")
		return
	}
	out := make([]characterResponse, 0, len(chars))
	for i := range chars {
		out = append(out, toCharacterResponse(&chars[i]))
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *CharacterHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "characterID")
	if !ok {
		return
	}
	c, ok := h.decodeCharacter(w, r)
	if !ok {
		return
	}
	c.ID = id

	err := h.db.UpdateCharacter(r.Context(), c)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Character not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error updating character", "error", err, "character_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to update character.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toCharacterResponse(c))
}

func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger, "characterID")
	if !ok {
		return
	}

	err := h.db.DeleteCharacter(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Character not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error deleting character", "error", err, "character_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete character.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
