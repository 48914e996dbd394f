package chat

import "strings"

// SpeakerLabel resolves the display label for a message in a flat transcript.
// User turns carry the resolved user name; system and narrator turns use
// fixed labels; assistant turns use the sender's name when present,
// otherwise the character name.
func SpeakerLabel(m Message, userName, characterName string) string {
	switch m.Role {
	case RoleUser:
		return userName
	case RoleSystem:
		return "System"
	case RoleNarrator:
		return "Narrator"
	default:
		if m.SenderName != "" {
			return m.SenderName
		}
		return characterName
	}
}

// Transcript renders conversation history as flat text, one
// "Label: content" line per turn, turns separated by a blank line.
func Transcript(messages []Message, userName, characterName string) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, SpeakerLabel(m, userName, characterName)+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}
