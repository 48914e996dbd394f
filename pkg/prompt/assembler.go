// Package prompt assembles system prompts for chat, impersonation, and
// narration generations, and submits them to an LLM gateway. All
// collaborator boundaries are interfaces so the assembly pipeline stays
// independent of storage and transport.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"roleplaychat/pkg/card"
	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/template"
	"roleplaychat/pkg/worldstate"
)

// PersonaInfo is the acting user's resolved identity.
type PersonaInfo struct {
	Name        string
	Description string
	AvatarRef   string
}

// PersonaLookup resolves the active persona for a user.
type PersonaLookup interface {
	ActiveUserInfo(ctx context.Context, userID int64) (PersonaInfo, error)
}

// WorldStateStore reads and writes per-conversation world state. Get
// returns a nil document when none has been stored yet.
type WorldStateStore interface {
	Get(ctx context.Context, conversationID int64) (worldstate.Document, error)
	Put(ctx context.Context, conversationID int64, doc worldstate.Document) error
}

// LorebookMatcher returns keyword-triggered context for the transcript,
// or "" when nothing matched.
type LorebookMatcher interface {
	BuildContext(userID, characterID int64, turns []string) string
}

// Gateway submits a completion request to the LLM provider. Gateway
// errors propagate to the caller unchanged; this layer never retries.
type Gateway interface {
	Complete(ctx context.Context, req chat.CompletionRequest) (*chat.CompletionResponse, error)
}

// Logger records prompts and responses for debugging. Implementations
// must be fire-and-forget: a logging failure never fails the call.
type Logger interface {
	LogPrompt(messages []chat.Message, tag, subjectName, userName string) string
	LogResponse(raw, normalized, tag, logID string, resp *chat.CompletionResponse)
}

// Character is the character record an assembly operates on. CardData is
// the serialized card payload; Description and PostHistory are top-level
// overrides that win over the card's own fields when set.
type Character struct {
	ID          int64
	Name        string
	Description string
	PostHistory string
	CardData    []byte
}

// Settings are the generation parameters for one call. UserID rides
// along for persona lookup when no explicit user id is given.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	UserID      int64
}

// Request is the shared input of the chat, impersonation, and narration
// assemblies. ConversationID zero means no world-state context. UserID
// zero defers to Settings.UserID. ScenarioOverride, when set, wins over
// the card's scenario.
type Request struct {
	History          []chat.Message
	Character        Character
	Settings         Settings
	UserID           int64
	ConversationID   int64
	ScenarioOverride string
}

func (r Request) effectiveUserID() int64 {
	if r.UserID != 0 {
		return r.UserID
	}
	return r.Settings.UserID
}

// ItemContext carries the inspected item for look_item narrations.
type ItemContext struct {
	Owner       string
	Name        string
	Description string
}

// Assembler wires the collaborators together. Log (the slog handle) and
// Logs (the prompt logger) are optional; everything else is required for
// the methods that use it.
type Assembler struct {
	Templates   Source
	Personas    PersonaLookup
	WorldStates WorldStateStore
	Lorebook    LorebookMatcher
	Gateway     Gateway
	Logs        Logger
	Log         *slog.Logger
}

// gathered is the shared variable set produced by the common pipeline
// steps, before template rendering.
type gathered struct {
	fields   *card.Fields
	userName string
	vars     template.Vars
}

// gather runs the steps every assembly shares: parse the card, resolve
// the persona, fetch and format world state, and build the variable set.
func (a *Assembler) gather(ctx context.Context, req Request) (*gathered, error) {
	fields, err := card.Parse(req.Character.CardData)
	if err != nil {
		return nil, err
	}

	persona, err := a.Personas.ActiveUserInfo(ctx, req.effectiveUserID())
	if err != nil {
		return nil, fmt.Errorf("resolve persona: %w", err)
	}
	userName := persona.Name

	charName := req.Character.Name
	if charName == "" {
		charName = fields.Name
	}
	if charName == "" {
		charName = "Character"
	}

	var worldText, charMood, charPosition, charClothes string
	if req.ConversationID != 0 && a.WorldStates != nil {
		doc, err := a.WorldStates.Get(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("fetch world state: %w", err)
		}
		if doc != nil {
			worldText = worldstate.FormatForPrompt(doc, map[string]string{
				worldstate.EntityCharacter: charName,
				worldstate.EntityUser:      userName,
			})
			if entity := doc[worldstate.EntityCharacter]; entity != nil {
				charMood = entity.Text("mood")
				charPosition = entity.Text("position")
				charClothes = worldstate.ItemSummary(entity.List("clothes"))
			}
		}
	}

	description := req.Character.Description
	if description == "" {
		description = fields.Description
	}
	scenario := req.ScenarioOverride
	if scenario == "" {
		scenario = fields.Scenario
	}
	postHistory := req.Character.PostHistory
	if postHistory == "" {
		postHistory = fields.PostHistoryInstructions
	}

	vars := template.Vars{
		"char":          charName,
		"user":          userName,
		"personality":   fields.Personality,
		"scenario":      scenario,
		"description":   description,
		"world":         worldText,
		"post_history":  postHistory,
		"writing_style": loadWritingStyle(a.Templates),
		"history":       chat.Transcript(req.History, userName, charName),
		"world_sidebar": charMood != "" || charPosition != "" || charClothes != "",
		"char_mood":     charMood,
		"char_position": charPosition,
		"char_clothes":  charClothes,
	}

	return &gathered{fields: fields, userName: userName, vars: vars}, nil
}

// finish appends the post-template blocks, wraps the text as a single
// system message, and submits it.
func (a *Assembler) finish(ctx context.Context, req Request, text, tag, subjectName, userName string) (*chat.CompletionResponse, error) {
	messages := []chat.Message{{Role: chat.RoleSystem, Content: strings.TrimSpace(text)}}

	var logID string
	if a.Logs != nil {
		logID = a.Logs.LogPrompt(messages, tag, subjectName, userName)
	}

	a.logInfo("generating completion",
		slog.String("tag", tag),
		slog.String("subject", subjectName),
		slog.String("model", req.Settings.Model),
	)

	resp, err := a.Gateway.Complete(ctx, chat.CompletionRequest{
		Messages:    messages,
		Model:       req.Settings.Model,
		Temperature: req.Settings.Temperature,
		MaxTokens:   req.Settings.MaxTokens,
		UserID:      req.effectiveUserID(),
	})
	if err != nil {
		return nil, err
	}

	if a.Logs != nil {
		a.Logs.LogResponse(resp.Content, resp.Content, tag, logID, resp)
	}
	return resp, nil
}

// Chat assembles and submits a character reply prompt. tag distinguishes
// plain chats from regenerates and swipes in the prompt log; empty means
// "chat".
func (a *Assembler) Chat(ctx context.Context, req Request, tag string) (*chat.PromptResult, error) {
	if tag == "" {
		tag = "chat"
	}

	g, err := a.gather(ctx, req)
	if err != nil {
		return nil, err
	}

	text := template.Render(loadChatTemplate(a.Templates), g.vars)
	if g.fields.ExampleDialogue != "" {
		text += "\n\nExample Dialogue:\n" + g.fields.ExampleDialogue
	}
	if g.fields.SystemPrompt != "" {
		text += "\n\n" + g.fields.SystemPrompt
	}
	if lore := a.lorebookContext(req); lore != "" {
		text += "\n\n" + lore
	}

	resp, err := a.finish(ctx, req, text, tag, g.vars["char"].(string), g.userName)
	if err != nil {
		return nil, err
	}
	return &chat.PromptResult{Content: resp.Content, Reasoning: resp.Reasoning}, nil
}

// Impersonate assembles a prompt that writes the next message as the
// user, in the given style. A leading "Name:" echo in the output is
// stripped, since models often repeat the speaker label they were shown
// in the transcript.
func (a *Assembler) Impersonate(ctx context.Context, req Request, style ImpersonateStyle) (*chat.PromptResult, error) {
	if style == "" {
		style = StyleImpersonate
	}

	g, err := a.gather(ctx, req)
	if err != nil {
		return nil, err
	}

	text := template.Render(loadImpersonateTemplate(a.Templates, style), g.vars)
	if lore := a.lorebookContext(req); lore != "" {
		text += "\n\n" + lore
	}

	resp, err := a.finish(ctx, req, text, "impersonate", g.vars["char"].(string), g.userName)
	if err != nil {
		return nil, err
	}
	return &chat.PromptResult{
		Content:   StripSpeakerEcho(resp.Content, g.userName),
		Reasoning: resp.Reasoning,
	}, nil
}

// Narrate assembles a narrator-perspective prompt. item supplies the
// look_item context variables and is ignored for other types.
func (a *Assembler) Narrate(ctx context.Context, req Request, typ NarrationType, item *ItemContext) (*chat.PromptResult, error) {
	g, err := a.gather(ctx, req)
	if err != nil {
		return nil, err
	}

	if item != nil {
		g.vars["item_owner"] = item.Owner
		g.vars["item_name"] = item.Name
		g.vars["item_description"] = item.Description
	}

	text := template.Render(loadNarrationTemplate(a.Templates, typ), g.vars)

	resp, err := a.finish(ctx, req, text, "action", g.vars["char"].(string), g.userName)
	if err != nil {
		return nil, err
	}
	return &chat.PromptResult{Content: resp.Content, Reasoning: resp.Reasoning}, nil
}

// SceneRequest is the input of a multi-character scene narration, where
// no single character record anchors the assembly.
type SceneRequest struct {
	UserID         int64
	ConversationID int64
	Settings       Settings
	History        []chat.Message
	Scenario       string
	Participants   []Character

	// CharacterName names the subject of enter/leave narrations;
	// CharacterNames overrides the participant list for scene intros.
	CharacterName  string
	CharacterNames []string
}

// SceneNarrate assembles a scene-level narration over all active
// participants. Card parse failures for individual participants are
// tolerated here: a scene can still be narrated when one of its cards is
// broken.
func (a *Assembler) SceneNarrate(ctx context.Context, req SceneRequest, typ NarrationType) (*chat.PromptResult, error) {
	persona, err := a.Personas.ActiveUserInfo(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve persona: %w", err)
	}
	userName := persona.Name

	names := make([]string, 0, len(req.Participants))
	var descriptions []string
	for _, participant := range req.Participants {
		names = append(names, participant.Name)
		fields, err := card.Parse(participant.CardData)
		if err != nil {
			a.logWarn("skipping unparseable card in scene", slog.String("character", participant.Name))
			continue
		}
		desc := participant.Description
		if desc == "" {
			desc = fields.Description
		}
		line := participant.Name + ": " + desc
		if fields.Personality != "" {
			line += " Personality: " + fields.Personality
		}
		descriptions = append(descriptions, line)
	}

	characterNames := strings.Join(names, ", ")
	if len(req.CharacterNames) > 0 {
		characterNames = strings.Join(req.CharacterNames, ", ")
	}

	var worldText string
	if len(req.Participants) > 0 && req.ConversationID != 0 && a.WorldStates != nil {
		doc, err := a.WorldStates.Get(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("fetch world state: %w", err)
		}
		if doc != nil {
			worldText = worldstate.FormatForPrompt(doc, map[string]string{
				worldstate.EntityCharacter: req.Participants[0].Name,
				worldstate.EntityUser:      userName,
			})
		}
	}

	primaryName := "Narrator"
	if len(req.Participants) > 0 {
		primaryName = req.Participants[0].Name
	}

	vars := template.Vars{
		"character_name":         req.CharacterName,
		"character_names":        characterNames,
		"character_descriptions": strings.Join(descriptions, "\n\n"),
		"user":                   userName,
		"user_description":       persona.Description,
		"world":                  worldText,
		"scenario":               req.Scenario,
		"history":                chat.Transcript(req.History, userName, primaryName),
	}

	text := template.Render(loadNarrationTemplate(a.Templates, typ), vars)
	messages := []chat.Message{{Role: chat.RoleSystem, Content: strings.TrimSpace(text)}}

	var logID string
	if a.Logs != nil {
		logID = a.Logs.LogPrompt(messages, "scene_narration", "Narrator", userName)
	}

	a.logInfo("generating scene narration",
		slog.String("type", string(typ)),
		slog.String("characters", characterNames),
		slog.String("model", req.Settings.Model),
	)

	resp, err := a.Gateway.Complete(ctx, chat.CompletionRequest{
		Messages:    messages,
		Model:       req.Settings.Model,
		Temperature: req.Settings.Temperature,
		MaxTokens:   req.Settings.MaxTokens,
		UserID:      req.UserID,
	})
	if err != nil {
		return nil, err
	}

	if a.Logs != nil {
		a.Logs.LogResponse(resp.Content, resp.Content, "scene_narration", logID, resp)
	}
	return &chat.PromptResult{Content: resp.Content, Reasoning: resp.Reasoning}, nil
}

func (a *Assembler) lorebookContext(req Request) string {
	if a.Lorebook == nil {
		return ""
	}
	turns := make([]string, 0, len(req.History))
	for _, m := range req.History {
		turns = append(turns, m.Content)
	}
	return a.Lorebook.BuildContext(req.effectiveUserID(), req.Character.ID, turns)
}

func (a *Assembler) logInfo(msg string, args ...any) {
	if a.Log != nil {
		a.Log.Info(msg, args...)
	}
}

func (a *Assembler) logWarn(msg string, args ...any) {
	if a.Log != nil {
		a.Log.Warn(msg, args...)
	}
}

// StripSpeakerEcho removes a leading "name:" label from generated text,
// case-insensitively.
func StripSpeakerEcho(content, name string) string {
	content = strings.TrimSpace(content)
	if name == "" {
		return content
	}
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(name) + `\s*:\s*`)
	return pattern.ReplaceAllString(content, "")
}
