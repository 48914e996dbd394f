package worldstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeGenericShape(t *testing.T) {
	raw := []byte(`{
		"worldState": {
			"character": {
				"attributes": [
					{"name": "mood", "type": "text", "value": "cheerful"},
					{"name": "clothes", "type": "list", "value": [
						{"name": "dress", "description": "blue sundress"}
					]}
				]
			}
		},
		"scenarioId": "tavern-night"
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	character := env.WorldState[EntityCharacter]
	require.NotNil(t, character)
	assert.Equal(t, "cheerful", character.Text("mood"))
	assert.Equal(t, []ListItem{{Name: "dress", Description: "blue sundress"}}, character.List("clothes"))

	assert.JSONEq(t, `"tavern-night"`, string(env.Extra["scenarioId"]))
}

func TestDecodeEnvelopeFlatLegacyShape(t *testing.T) {
	raw := []byte(`{
		"worldState": {
			"character": {
				"mood": "wary",
				"position": "near the fire",
				"clothes": [{"name": "cloak", "description": "hooded cloak"}],
				"weapon": "short sword"
			},
			"user": {
				"position": "at the table"
			}
		}
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	character := env.WorldState[EntityCharacter]
	require.NotNil(t, character)
	assert.Equal(t, "wary", character.Text("mood"))
	assert.Equal(t, "near the fire", character.Text("position"))
	assert.Equal(t, []ListItem{{Name: "cloak", Description: "hooded cloak"}}, character.List("clothes"))
	assert.Equal(t, "short sword", character.Text("weapon"))

	user := env.WorldState[EntityUser]
	require.NotNil(t, user)
	assert.Equal(t, "at the table", user.Text("position"))
}

func TestDecodeEnvelopeClothesOnlyShape(t *testing.T) {
	raw := []byte(`{
		"clothes": {
			"character": [{"name": "dress", "description": "red dress"}],
			"user": []
		},
		"note": "kept"
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	character := env.WorldState[EntityCharacter]
	require.NotNil(t, character)
	assert.Equal(t, []ListItem{{Name: "dress", Description: "red dress"}}, character.List("clothes"))

	user := env.WorldState[EntityUser]
	require.NotNil(t, user)
	assert.Empty(t, user.List("clothes"))

	assert.JSONEq(t, `"kept"`, string(env.Extra["note"]))
	assert.NotContains(t, env.Extra, "clothes")
}

func TestDecodeEnvelopeExtraOnly(t *testing.T) {
	raw := []byte(`{"sessionId": 42}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Nil(t, env.WorldState)
	assert.JSONEq(t, `42`, string(env.Extra["sessionId"]))
}

func TestEnvelopeRoundTripPreservesExtra(t *testing.T) {
	raw := []byte(`{
		"worldState": {
			"character": {
				"attributes": [{"name": "mood", "type": "text", "value": "calm"}]
			}
		},
		"legacyField": {"nested": true}
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	out, err := json.Marshal(env)
	require.NoError(t, err)

	reparsed, err := DecodeEnvelope(out)
	require.NoError(t, err)
	assert.Equal(t, "calm", reparsed.WorldState[EntityCharacter].Text("mood"))
	assert.JSONEq(t, `{"nested": true}`, string(reparsed.Extra["legacyField"]))
}

func TestDecodeEnvelopeRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"worldState": `))
	assert.Error(t, err)
}
