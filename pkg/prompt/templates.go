package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Template categories. Each category resolves to its own file naming
// scheme under the prompts directory.
type Category string

const (
	CategoryChat        Category = "chat"
	CategoryImpersonate Category = "impersonate"
	CategoryNarration   Category = "narration"
	CategoryStyle       Category = "style"
	CategoryWorldState  Category = "worldstate"
)

// ImpersonateStyle selects the impersonation template variant.
type ImpersonateStyle string

const (
	StyleImpersonate ImpersonateStyle = "impersonate"
	StyleSerious     ImpersonateStyle = "serious"
	StyleSarcastic   ImpersonateStyle = "sarcastic"
	StyleFlirty      ImpersonateStyle = "flirty"
)

// NarrationType selects the narration template variant.
type NarrationType string

const (
	NarrateLookCharacter NarrationType = "look_character"
	NarrateLookScene     NarrationType = "look_scene"
	NarrateDefault       NarrationType = "narrate"
	NarrateLookItem      NarrationType = "look_item"
	NarrateExploreScene  NarrationType = "explore_scene"
	NarrateEnterScene    NarrationType = "enter_scene"
	NarrateLeaveScene    NarrationType = "leave_scene"
	NarrateSceneIntro    NarrationType = "scene_intro"
)

// ErrTemplateNotFound reports a missing template. Callers always absorb
// it by falling back to a compiled default; it never surfaces.
var ErrTemplateNotFound = errors.New("template not found")

// Source provides template text by category and name. Implementations
// must not cache: authors edit template files while the server runs, and
// every assembly should see the current text.
type Source interface {
	Read(category Category, name string) (string, error)
}

// DirSource reads templates from a flat directory of .txt files, one
// fresh read per call.
type DirSource struct {
	Root string
}

func (d DirSource) Read(category Category, name string) (string, error) {
	filename, err := templateFilename(category, name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(filepath.Join(d.Root, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, filename)
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func templateFilename(category Category, name string) (string, error) {
	switch category {
	case CategoryChat:
		return "chat_system.txt", nil
	case CategoryImpersonate:
		if name == "" || name == string(StyleImpersonate) {
			return "chat_impersonate.txt", nil
		}
		return "impersonate_" + name + ".txt", nil
	case CategoryNarration:
		return "action_" + name + ".txt", nil
	case CategoryStyle:
		return "writing_style.txt", nil
	case CategoryWorldState:
		return "world_generation.txt", nil
	}
	return "", fmt.Errorf("unknown template category %q", category)
}

// DefaultSystemPrompt is the compiled-in chat template used when no
// chat_system.txt exists.
const DefaultSystemPrompt = `You are {{char}}.

{{description}}

{{#if personality}}Personality: {{personality}}

{{/if}}{{#if scenario}}Scenario: {{scenario}}

{{/if}}{{#if world}}{{world}}

{{/if}}{{#if writing_style}}Writing style: {{writing_style}}

{{/if}}Write your next reply as {{char}} in this roleplay chat with {{user}}.

{{history}}`

// DefaultImpersonatePrompt is the compiled-in impersonation template,
// shared by every style whose file is missing.
const DefaultImpersonatePrompt = `Write the next message as {{user}} in this roleplay chat with {{char}}.

Stay in character as {{user}}. Write a natural response that fits the conversation flow.

{{history}}`

// DefaultNarrationPrompts are the compiled-in narration templates by
// type. Unknown types fall back to the plain narrate entry.
var DefaultNarrationPrompts = map[NarrationType]string{
	NarrateLookCharacter: `You are a narrator. Briefly describe {{char}}'s current appearance and expression. Keep it to 2-3 sentences.`,
	NarrateLookScene:     `You are a narrator. Briefly describe the current environment. Keep it to 2-3 sentences.`,
	NarrateDefault:       `You are a narrator. Briefly describe what is happening in the scene. Keep it to 2-3 sentences.`,
	NarrateLookItem:      `You are a narrator. Briefly describe {{item_owner}}'s {{item_name}} in detail. Keep it to 2-3 sentences.`,
	NarrateExploreScene:  `You are a narrator. {{user}} looks around and explores the environment. Describe something interesting they notice or discover - an object, detail, or feature of the scene they hadn't focused on before. Keep it to 2-3 sentences.`,
	NarrateEnterScene:    `You are a narrator. {{character_name}} has just entered the scene. Briefly describe their entrance in 1-2 sentences.`,
	NarrateLeaveScene:    `You are a narrator. {{character_name}} is leaving the scene. Briefly describe their departure in 1-2 sentences.`,
	NarrateSceneIntro:    `You are a narrator. The following characters are present: {{character_names}}. Describe the scene opening in 2-3 sentences.`,
}

// DefaultWorldStatePrompt is the compiled-in world-state generation
// template. Its output format is what the state parser expects.
const DefaultWorldStatePrompt = `Generate the current state for {{char}}.

Character: {{char}}
Description: {{description}}
Scenario: {{scenario}}

Recent conversation:
{{history}}

Output format:
{{char}}:
mood: [current emotional state]
position: [physical position/location]
clothes:
  [item]: [description]

{{user}}:
position: [physical position/location]
clothes:
  [item]: [description]

Guidelines:
- Mood: Brief emotional state based on recent events (cheerful, anxious, relaxed, etc.)
- Position: Physical location and posture/stance
- Clothes: 3-5 items, be specific with colors and styles
- Base the state on what's happening in the conversation`

// Filename returns the file a template resolves to under a directory
// source. The editing API uses it to read and write template files.
func Filename(category Category, name string) (string, error) {
	return templateFilename(category, name)
}

// DefaultText returns the compiled-in text a missing template falls
// back to.
func DefaultText(category Category, name string) string {
	switch category {
	case CategoryChat:
		return DefaultSystemPrompt
	case CategoryImpersonate:
		return DefaultImpersonatePrompt
	case CategoryNarration:
		if s, ok := DefaultNarrationPrompts[NarrationType(name)]; ok {
			return s
		}
		return DefaultNarrationPrompts[NarrateDefault]
	case CategoryWorldState:
		return DefaultWorldStatePrompt
	}
	return ""
}

// The load helpers absorb a missing file into the compiled default, so
// template resolution can never fail an assembly.

func loadChatTemplate(src Source) string {
	if src != nil {
		if s, err := src.Read(CategoryChat, ""); err == nil {
			return s
		}
	}
	return DefaultSystemPrompt
}

func loadImpersonateTemplate(src Source, style ImpersonateStyle) string {
	if src != nil {
		if s, err := src.Read(CategoryImpersonate, string(style)); err == nil {
			return s
		}
	}
	return DefaultImpersonatePrompt
}

func loadNarrationTemplate(src Source, typ NarrationType) string {
	if src != nil {
		if s, err := src.Read(CategoryNarration, string(typ)); err == nil {
			return s
		}
	}
	if s, ok := DefaultNarrationPrompts[typ]; ok {
		return s
	}
	return DefaultNarrationPrompts[NarrateDefault]
}

func loadWritingStyle(src Source) string {
	if src != nil {
		if s, err := src.Read(CategoryStyle, ""); err == nil {
			return s
		}
	}
	return ""
}

func loadWorldStateTemplate(src Source) string {
	if src != nil {
		if s, err := src.Read(CategoryWorldState, ""); err == nil {
			return s
		}
	}
	return DefaultWorldStatePrompt
}
