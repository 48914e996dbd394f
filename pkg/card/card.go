// Package card parses character card payloads. Cards arrive as JSON in
// either the flat v1 shape or the v2 shape that nests the same fields
// under a "data" key; both normalize to Fields.
package card

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidData marks a card payload that could not be parsed. Callers
// must treat it as fatal for the generation: every prompt variable
// depends on the card, so proceeding with an empty one silently corrupts
// the output.
var ErrInvalidData = errors.New("invalid character card data")

// Fields is the normalized card content used by the assemblers. The
// untyped v1/v2 union never leaves this package.
type Fields struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Personality  string `json:"personality"`
	Scenario     string `json:"scenario"`
	FirstMessage string `json:"first_message"`
	// ExampleDialogue is appended verbatim after the rendered template.
	ExampleDialogue string `json:"example_dialogue"`
	// SystemPrompt is the card author's raw suffix, appended after the
	// example dialogue.
	SystemPrompt            string   `json:"system_prompt"`
	PostHistoryInstructions string   `json:"post_history_instructions"`
	Tags                    []string `json:"tags,omitempty"`
	Creator                 string   `json:"creator,omitempty"`
	CharacterVersion        string   `json:"character_version,omitempty"`
}

// payload mirrors the SillyTavern wire shape. V2 cards wrap the fields
// under "data", and some exports nest that more than once.
type payload struct {
	Data *payload `json:"data"`

	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	Personality             string   `json:"personality"`
	Scenario                string   `json:"scenario"`
	FirstMessage            string   `json:"first_mes"`
	MessageExample          string   `json:"mes_example"`
	SystemPrompt            string   `json:"system_prompt"`
	PostHistoryInstructions string   `json:"post_history_instructions"`
	Tags                    []string `json:"tags"`
	Creator                 string   `json:"creator"`
	CharacterVersion        string   `json:"character_version"`
	Spec                    string   `json:"spec"`
	SpecVersion             string   `json:"spec_version"`
}

// Parse normalizes a raw card payload, unwrapping the v2 "data"
// envelope. Malformed JSON returns an error wrapping ErrInvalidData.
func Parse(raw []byte) (*Fields, error) {
	var p *payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}
	for p.Data != nil {
		p = p.Data
	}
	return &Fields{
		Name:                    p.Name,
		Description:             p.Description,
		Personality:             p.Personality,
		Scenario:                p.Scenario,
		FirstMessage:            p.FirstMessage,
		ExampleDialogue:         p.MessageExample,
		SystemPrompt:            p.SystemPrompt,
		PostHistoryInstructions: p.PostHistoryInstructions,
		Tags:                    p.Tags,
		Creator:                 p.Creator,
		CharacterVersion:        p.CharacterVersion,
	}, nil
}
