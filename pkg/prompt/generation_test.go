package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roleplaychat/pkg/chat"
	"roleplaychat/pkg/worldstate"
)

func testGenerationInput() GenerationInput {
	return GenerationInput{
		ConversationID:       12,
		CharacterName:        "Aria",
		CharacterDescription: "A traveling bard.",
		Scenario:             "A rainy tavern evening.",
		UserName:             "Jordan",
		History:              "Jordan: Good evening.\n\nAria: Well met.",
		Settings:             Settings{Model: "test-model", Temperature: 0.4, MaxTokens: 400},
	}
}

func TestGenerateWorldStateParsesReply(t *testing.T) {
	gw := &stubGateway{resp: &chat.CompletionResponse{Content: `Aria:
mood: cheerful
position: behind the bar
clothes:
  apron: stained leather apron

Jordan:
position: on a stool
clothes:
  coat: damp wool coat
`}}
	a := newTestAssembler(gw)

	doc := a.GenerateWorldState(context.Background(), testGenerationInput())

	assert.Equal(t, "cheerful", doc[worldstate.EntityCharacter].Text("mood"))
	assert.Equal(t, "on a stool", doc[worldstate.EntityUser].Text("position"))

	// The generation prompt goes out as a user turn carrying the
	// character context and history.
	require.Len(t, gw.lastReq.Messages, 1)
	assert.Equal(t, chat.RoleUser, gw.lastReq.Messages[0].Role)
	assert.Contains(t, gw.lastReq.Messages[0].Content, "Generate the current state for Aria.")
	assert.Contains(t, gw.lastReq.Messages[0].Content, "Jordan: Good evening.")
}

func TestGenerateWorldStateGatewayFailureFallsBack(t *testing.T) {
	gw := &stubGateway{err: errors.New("provider down")}
	a := newTestAssembler(gw)

	doc := a.GenerateWorldState(context.Background(), testGenerationInput())

	assert.Equal(t, "neutral", doc[worldstate.EntityCharacter].Text("mood"))
	assert.Len(t, doc[worldstate.EntityCharacter].List("clothes"), 3)
}

func TestGenerateWorldStateEmptyReplyFallsBack(t *testing.T) {
	gw := &stubGateway{resp: &chat.CompletionResponse{Content: "I cannot describe that."}}
	a := newTestAssembler(gw)

	doc := a.GenerateWorldState(context.Background(), testGenerationInput())
	assert.Equal(t, "standing nearby", doc[worldstate.EntityUser].Text("position"))
}

func TestGenerateWorldStateDefaultsForEmptyInputs(t *testing.T) {
	gw := &stubGateway{resp: &chat.CompletionResponse{Content: "nothing"}}
	a := newTestAssembler(gw)

	in := testGenerationInput()
	in.Scenario = ""
	in.History = ""
	a.GenerateWorldState(context.Background(), in)

	assert.Contains(t, gw.lastReq.Messages[0].Content, "A casual encounter")
	assert.Contains(t, gw.lastReq.Messages[0].Content, "(No conversation yet)")
}
