package card

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseV1Flat(t *testing.T) {
	raw := []byte(`{
		"name": "Aria",
		"description": "A traveling bard.",
		"personality": "warm, quick-witted",
		"scenario": "A rainy tavern evening.",
		"first_mes": "Mind if I sit here?",
		"mes_example": "Aria: So, where are you headed?",
		"system_prompt": "Always speak in first person.",
		"post_history_instructions": "Stay in the tavern."
	}`)

	fields, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Aria", fields.Name)
	assert.Equal(t, "A traveling bard.", fields.Description)
	assert.Equal(t, "warm, quick-witted", fields.Personality)
	assert.Equal(t, "A rainy tavern evening.", fields.Scenario)
	assert.Equal(t, "Mind if I sit here?", fields.FirstMessage)
	assert.Equal(t, "Aria: So, where are you headed?", fields.ExampleDialogue)
	assert.Equal(t, "Always speak in first person.", fields.SystemPrompt)
	assert.Equal(t, "Stay in the tavern.", fields.PostHistoryInstructions)
}

func TestParseV2Nested(t *testing.T) {
	raw := []byte(`{
		"spec": "chara_card_v2",
		"spec_version": "2.0",
		"data": {
			"name": "Aria",
			"personality": "warm",
			"creator": "someone",
			"tags": ["fantasy", "bard"]
		}
	}`)

	fields, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Aria", fields.Name)
	assert.Equal(t, "warm", fields.Personality)
	assert.Equal(t, "someone", fields.Creator)
	assert.Equal(t, []string{"fantasy", "bard"}, fields.Tags)
}

func TestParseDoubleNested(t *testing.T) {
	raw := []byte(`{"data": {"data": {"name": "Aria"}}}`)

	fields, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Aria", fields.Name)
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"name": `, "null"} {
		_, err := Parse([]byte(raw))
		require.Error(t, err, "raw %q", raw)
		assert.True(t, errors.Is(err, ErrInvalidData), "raw %q", raw)
	}
}

func TestParseEmptyObjectIsValid(t *testing.T) {
	fields, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "", fields.Name)
}
