package worldstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityGetCaseInsensitive(t *testing.T) {
	entity := &Entity{}
	entity.SetText("Mood", "calm")

	attr, ok := entity.Get("MOOD")
	require.True(t, ok)
	assert.Equal(t, "mood", attr.Name)
	assert.Equal(t, "calm", attr.Text)
}

func TestEntitySetReplacesInPlace(t *testing.T) {
	entity := &Entity{}
	entity.SetText("mood", "calm")
	entity.SetText("position", "standing")
	entity.SetText("mood", "tense")

	require.Len(t, entity.Attributes, 2)
	assert.Equal(t, "mood", entity.Attributes[0].Name)
	assert.Equal(t, "tense", entity.Attributes[0].Text)
}

func TestEntitySetListReplacesText(t *testing.T) {
	entity := &Entity{}
	entity.SetText("clothes", "see below")
	entity.SetList("clothes", []ListItem{{Name: "dress", Description: "red"}})

	attr, ok := entity.Get("clothes")
	require.True(t, ok)
	assert.Equal(t, TypeList, attr.Type)
	assert.Equal(t, "", entity.Text("clothes"))
	assert.Len(t, entity.List("clothes"), 1)
}

func TestDocumentKeysOrder(t *testing.T) {
	doc := Document{}
	doc.Entity("zephyr")
	doc.Entity(EntityUser)
	doc.Entity("bartender")
	doc.Entity(EntityCharacter)

	assert.Equal(t, []string{EntityCharacter, EntityUser, "bartender", "zephyr"}, doc.Keys())
}

func TestDocumentHasContent(t *testing.T) {
	doc := Document{}
	assert.False(t, doc.HasContent())

	doc.Entity(EntityCharacter)
	assert.False(t, doc.HasContent())

	doc.Entity(EntityCharacter).SetText("mood", "")
	assert.False(t, doc.HasContent())

	doc.Entity(EntityCharacter).SetText("mood", "bright")
	assert.True(t, doc.HasContent())
}

func TestDefaultDocument(t *testing.T) {
	doc := DefaultDocument()

	character := doc[EntityCharacter]
	require.NotNil(t, character)
	assert.Equal(t, "neutral", character.Text("mood"))
	assert.Equal(t, "standing nearby", character.Text("position"))
	assert.Len(t, character.List("clothes"), 3)

	user := doc[EntityUser]
	require.NotNil(t, user)
	assert.Equal(t, "standing nearby", user.Text("position"))
	assert.Len(t, user.List("clothes"), 3)
	assert.Equal(t, "", user.Text("mood"))
}

func TestAttributeJSONRoundTrip(t *testing.T) {
	entity := &Entity{}
	entity.SetText("mood", "playful")
	entity.SetList("clothes", []ListItem{{Name: "hat", Description: "straw hat"}})

	raw, err := json.Marshal(entity)
	require.NoError(t, err)

	var decoded Entity
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, entity.Attributes, decoded.Attributes)
}

func TestAttributeJSONValueShape(t *testing.T) {
	text := Attribute{Name: "mood", Type: TypeText, Text: "calm"}
	raw, err := json.Marshal(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"mood","type":"text","value":"calm"}`, string(raw))

	list := Attribute{Name: "clothes", Type: TypeList}
	raw, err = json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"clothes","type":"list","value":[]}`, string(raw))
}
