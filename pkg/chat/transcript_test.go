package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpeakerLabel(t *testing.T) {
	cases := []struct {
		name     string
		message  Message
		expected string
	}{
		{"user", Message{Role: RoleUser, Content: "hi"}, "Jordan"},
		{"system", Message{Role: RoleSystem, Content: "scene reset"}, "System"},
		{"narrator", Message{Role: RoleNarrator, Content: "The rain fell."}, "Narrator"},
		{"assistant default", Message{Role: RoleAssistant, Content: "hello"}, "Aria"},
		{"assistant named", Message{Role: RoleAssistant, Content: "hmph", SenderName: "Bartender"}, "Bartender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SpeakerLabel(tc.message, "Jordan", "Aria"))
		})
	}
}

func TestTranscript(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "Good evening."},
		{Role: RoleAssistant, Content: "Welcome back, traveler."},
		{Role: RoleNarrator, Content: "The tavern quiets down."},
	}

	expected := "Jordan: Good evening.\n\n" +
		"Aria: Welcome back, traveler.\n\n" +
		"Narrator: The tavern quiets down."
	assert.Equal(t, expected, Transcript(messages, "Jordan", "Aria"))
}

func TestTranscriptEmpty(t *testing.T) {
	assert.Equal(t, "", Transcript(nil, "Jordan", "Aria"))
}

func TestCompletionRequestValidate(t *testing.T) {
	req := CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Model:    "claude-sonnet-4",
	}
	assert.NoError(t, req.Validate())

	missing := CompletionRequest{Model: "claude-sonnet-4"}
	assert.Error(t, missing.Validate())

	noModel := CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	assert.Error(t, noModel.Validate())
}
