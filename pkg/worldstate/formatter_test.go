package worldstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForPrompt(t *testing.T) {
	doc := Document{}
	character := doc.Entity(EntityCharacter)
	character.SetText("mood", "cheerful")
	character.SetList("clothes", []ListItem{
		{Name: "dress", Description: "blue sundress"},
		{Name: "shoes", Description: "white sandals"},
	})
	user := doc.Entity(EntityUser)
	user.SetText("position", "by the door")

	got := FormatForPrompt(doc, map[string]string{
		EntityCharacter: "Aria",
		EntityUser:      "Jordan",
	})

	expected := `Aria:
mood: cheerful
clothes:
  dress: blue sundress
  shoes: white sandals

Jordan:
position: by the door`
	assert.Equal(t, expected, got)
}

func TestFormatOmitsEmptyAttributes(t *testing.T) {
	doc := Document{}
	character := doc.Entity(EntityCharacter)
	character.SetText("mood", "calm")
	character.SetText("position", "")
	character.SetList("clothes", nil)

	got := FormatForPrompt(doc, map[string]string{EntityCharacter: "Aria"})
	assert.Equal(t, "Aria:\nmood: calm", got)
}

func TestFormatOmitsEmptyEntities(t *testing.T) {
	doc := Document{}
	doc.Entity(EntityCharacter).SetText("mood", "calm")
	doc.Entity(EntityUser) // no attributes at all

	got := FormatForPrompt(doc, map[string]string{
		EntityCharacter: "Aria",
		EntityUser:      "Jordan",
	})
	assert.Equal(t, "Aria:\nmood: calm", got)
	assert.NotContains(t, got, "Jordan")
}

func TestFormatLabelFallback(t *testing.T) {
	doc := Document{}
	doc.Entity("campfire").SetText("state", "crackling softly")

	got := FormatForPrompt(doc, nil)
	assert.Equal(t, "Campfire:\nstate: crackling softly", got)
}

func TestFormatEntityForPrompt(t *testing.T) {
	entity := &Entity{}
	entity.SetText("mood", "wary")
	entity.SetList("clothes", []ListItem{{Name: "cloak", Description: "hooded travel cloak"}})

	got := FormatEntityForPrompt(entity, "Aria")
	assert.Equal(t, "Aria:\nmood: wary\nclothes:\n  cloak: hooded travel cloak", got)

	assert.Equal(t, "", FormatEntityForPrompt(nil, "Aria"))
	assert.Equal(t, "", FormatEntityForPrompt(&Entity{}, "Aria"))
}

func TestItemSummary(t *testing.T) {
	items := []ListItem{
		{Name: "dress", Description: "blue sundress"},
		{Name: "shoes", Description: "white sandals"},
	}
	assert.Equal(t, "dress: blue sundress, shoes: white sandals", ItemSummary(items))
	assert.Equal(t, "", ItemSummary(nil))
}
