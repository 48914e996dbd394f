package prompt

import (
	"context"
	"log/slog"

	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/template"
	"roleplaychat/pkg/worldstate"
)

// GenerationInput drives one world-state generation cycle for a
// conversation.
type GenerationInput struct {
	ConversationID       int64
	CharacterName        string
	CharacterDescription string
	Scenario             string
	UserName             string
	History              string
	Settings             Settings
}

// GenerateWorldState asks the model to describe the current scene state
// and parses the reply into a document. This cycle is deliberately
// forgiving: a gateway failure or an unparseable reply both resolve to
// the default document rather than an error, since stale or generic
// state is better than a failed generation. Persisting the result is the
// caller's job.
func (a *Assembler) GenerateWorldState(ctx context.Context, in GenerationInput) worldstate.Document {
	scenario := in.Scenario
	if scenario == "" {
		scenario = "A casual encounter"
	}
	history := in.History
	if history == "" {
		history = "(No conversation yet)"
	}

	text := template.Render(loadWorldStateTemplate(a.Templates), template.Vars{
		"char":        in.CharacterName,
		"user":        in.UserName,
		"scenario":    scenario,
		"description": in.CharacterDescription,
		"history":     history,
	})

	// The generation prompt is a user turn, not a system instruction.
	messages := []chat.Message{{Role: chat.RoleUser, Content: text}}

	var logID string
	if a.Logs != nil {
		logID = a.Logs.LogPrompt(messages, "world", in.CharacterName, in.UserName)
	}

	resp, err := a.Gateway.Complete(ctx, chat.CompletionRequest{
		Messages:    messages,
		Model:       in.Settings.Model,
		Temperature: in.Settings.Temperature,
		MaxTokens:   in.Settings.MaxTokens,
		UserID:      in.Settings.UserID,
	})
	if err != nil {
		a.logWarn("world state generation failed, using defaults",
			slog.Int64("conversation_id", in.ConversationID),
			slog.String("error", err.Error()),
		)
		return worldstate.DefaultDocument()
	}

	if a.Logs != nil {
		a.Logs.LogResponse(resp.Content, resp.Content, "world", logID, resp)
	}

	doc := worldstate.Parse(resp.Content, map[string]string{
		worldstate.EntityCharacter: in.CharacterName,
		worldstate.EntityUser:      in.UserName,
	})
	if !doc.HasContent() {
		a.logInfo("world state reply had no usable content, using defaults",
			slog.Int64("conversation_id", in.ConversationID),
		)
		return worldstate.DefaultDocument()
	}
	return doc
}
