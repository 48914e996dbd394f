package worldstate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// FormatForPrompt renders the document as labeled text blocks for
// re-injection into a prompt:
//
//	Aria:
//	mood: cheerful
//	clothes:
//	  dress: blue sundress
//
// labels maps entity keys to display labels; entities without a label
// fall back to their title-cased key. Empty attributes and entities with
// nothing to render are omitted entirely. Blocks are joined with a blank
// line.
func FormatForPrompt(doc Document, labels map[string]string) string {
	var blocks []string
	for _, key := range doc.Keys() {
		label := labels[key]
		if label == "" {
			label = titleCaser.String(key)
		}
		if block := FormatEntityForPrompt(doc[key], label); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// FormatEntityForPrompt renders a single entity's labeled block, for
// templates that want only the character's or only the user's state.
// Returns "" when there is nothing to render.
func FormatEntityForPrompt(entity *Entity, label string) string {
	if entity == nil {
		return ""
	}
	var lines []string
	for _, attr := range entity.Attributes {
		if s := formatAttribute(attr); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return label + ":\n" + strings.Join(lines, "\n")
}

func formatAttribute(attr Attribute) string {
	switch attr.Type {
	case TypeText:
		if attr.Text == "" {
			return ""
		}
		return attr.Name + ": " + attr.Text
	case TypeList:
		if len(attr.Items) == 0 {
			return ""
		}
		items := make([]string, 0, len(attr.Items))
		for _, item := range attr.Items {
			items = append(items, "  "+item.Name+": "+item.Description)
		}
		return attr.Name + ":\n" + strings.Join(items, "\n")
	}
	return ""
}

// ItemSummary flattens a list attribute's items to a single
// "name: description, name: description" line, used when a list value is
// surfaced as a plain template variable.
func ItemSummary(items []ListItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+": "+item.Description)
	}
	return strings.Join(parts, ", ")
}
