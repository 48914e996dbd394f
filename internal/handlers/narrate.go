package handlers

import (
	"encoding/json"
	"net/http"

	"roleplaychat/internal/services/events"
	"roleplaychat/internal/store"
	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/prompt"
	pkgqueue "roleplaychat/pkg/queue"
)

type narrateRequest struct {
	Type     string             `json:"type"`
	Item     *itemContext       `json:"item,omitempty"`
	Settings generationSettings `json:"settings"`
}

type itemContext struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// sceneChanging reports whether a narration type moves the scene enough
// to warrant a world-state refresh.
func sceneChanging(typ prompt.NarrationType) bool {
	switch typ {
	case prompt.NarrateExploreScene, prompt.NarrateEnterScene, prompt.NarrateLeaveScene, prompt.NarrateSceneIntro:
		return true
	}
	return false
}

// Narrate generates a narrator passage anchored to the conversation's
// character and appends it to the transcript.
func (h *ChatHandler) Narrate(w http.ResponseWriter, r *http.Request) {
	var req narrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	conv, char, history, ok := h.loadContext(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var item *prompt.ItemContext
	if req.Item != nil {
		item = &prompt.ItemContext{
			Owner:       req.Item.Owner,
			Name:        req.Item.Name,
			Description: req.Item.Description,
		}
	}

	typ := prompt.NarrationType(req.Type)
	result, err := h.assembler.Narrate(ctx, prompt.Request{
		History:          history,
		Character:        promptCharacter(char),
		Settings:         h.settings(req.Settings, conv.UserID),
		UserID:           conv.UserID,
		ConversationID:   conv.ID,
		ScenarioOverride: conv.Scenario,
	}, typ, item)
	if err != nil {
		h.writeGenerationError(w, err, conv.ID)
		return
	}

	msgID, err := h.db.AddMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleNarrator,
		Content:        result.Content,
	})
	if err != nil {
		h.logger.Error("Error saving narration", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save narration.")
		return
	}

	h.publish(ctx, events.Event{
		Type:           events.EventTypeMessageCreated,
		ConversationID: conv.ID,
		Data:           map[string]any{"role": chat.RoleNarrator, "message_id": msgID},
	})
	if sceneChanging(typ) {
		h.enqueueRefresh(ctx, conv, pkgqueue.ReasonSceneChange)
	}

	writeJSON(w, h.logger, http.StatusOK, generationResponse{
		MessageID: msgID,
		Content:   result.Content,
		Reasoning: result.Reasoning,
	})
}

type sceneRequest struct {
	Type           string             `json:"type"`
	ParticipantIDs []int64            `json:"participant_ids"`
	CharacterName  string             `json:"character_name"`
	CharacterNames []string           `json:"character_names"`
	Settings       generationSettings `json:"settings"`
}

// Scene generates a multi-character scene narration over the named
// participants and appends it as a narrator message.
func (h *ChatHandler) Scene(w http.ResponseWriter, r *http.Request) {
	var req sceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	conv, char, history, ok := h.loadContext(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	participantIDs := req.ParticipantIDs
	if len(participantIDs) == 0 {
		participantIDs = []int64{char.ID}
	}
	participants := make([]prompt.Character, 0, len(participantIDs))
	for _, pid := range participantIDs {
		pc, err := h.db.GetCharacter(ctx, pid)
		if err != nil {
			h.logger.Warn("Skipping unknown scene participant", "character_id", pid, "error", err)
			continue
		}
		participants = append(participants, promptCharacter(pc))
	}
	if len(participants) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "No valid scene participants.")
		return
	}

	typ := prompt.NarrationType(req.Type)
	result, err := h.assembler.SceneNarrate(ctx, prompt.SceneRequest{
		UserID:         conv.UserID,
		ConversationID: conv.ID,
		Settings:       h.settings(req.Settings, conv.UserID),
		History:        history,
		Scenario:       conv.Scenario,
		Participants:   participants,
		CharacterName:  req.CharacterName,
		CharacterNames: req.CharacterNames,
	}, typ)
	if err != nil {
		h.writeGenerationError(w, err, conv.ID)
		return
	}

	msgID, err := h.db.AddMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		Role:           chat.RoleNarrator,
		Content:        result.Content,
	})
	if err != nil {
		h.logger.Error("Error saving narration", "error", err, "conversation_id", conv.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save narration.")
		return
	}

	h.publish(ctx, events.Event{
		Type:           events.EventTypeMessageCreated,
		ConversationID: conv.ID,
		Data:           map[string]any{"role": chat.RoleNarrator, "message_id": msgID},
	})
	if sceneChanging(typ) {
		h.enqueueRefresh(ctx, conv, pkgqueue.ReasonSceneChange)
	}

	writeJSON(w, h.logger, http.StatusOK, generationResponse{
		MessageID: msgID,
		Content:   result.Content,
		Reasoning: result.Reasoning,
	})
}
