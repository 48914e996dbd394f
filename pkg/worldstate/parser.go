package worldstate

import (
	"sort"
	"strings"
)

// Parse recovers a structured Document from an LLM's free-text state
// description. Input nominally follows the requested
//
//	DisplayName:
//	mood: cheerful
//	clothes:
//	  dress: blue sundress
//	  - shoes: white sandals
//
// layout, but is not guaranteed to; the parser is a best-effort,
// line-oriented single pass that discards what it cannot attribute and
// never fails. entities maps entity keys to display names; lines naming
// anything else are dropped, so the result never contains entities
// outside the map. An all-empty result is a normal outcome the caller
// should answer with defaults.
func Parse(text string, entities map[string]string) Document {
	doc := Document{}

	// Reverse lookup, checked in deterministic order.
	keys := make([]string, 0, len(entities))
	for key := range entities {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	currentEntity := ""
	currentList := ""
	// In-progress list accumulation: entity -> attribute -> items.
	scratch := map[string]map[string][]ListItem{}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "-") {
			// Bullet item under the current list attribute. Bullets with
			// no colon carry nothing attributable.
			if currentEntity == "" || currentList == "" {
				continue
			}
			rest := strings.TrimSpace(strings.TrimLeft(trimmed, "- "))
			name, desc, ok := splitFirstColon(rest)
			if !ok || desc == "" {
				continue
			}
			scratch[currentEntity][currentList] = append(scratch[currentEntity][currentList], ListItem{Name: name, Description: desc})
			continue
		}

		before, after, ok := splitFirstColon(trimmed)
		if !ok {
			continue
		}

		if after == "" {
			// A bare "Label:" line is either an entity header or the
			// start of a list attribute under the current entity.
			if key := matchEntity(before, keys, entities); key != "" {
				currentEntity = key
				currentList = ""
				continue
			}
			if currentEntity == "" {
				continue
			}
			currentList = before
			if scratch[currentEntity] == nil {
				scratch[currentEntity] = map[string][]ListItem{}
			}
			if scratch[currentEntity][currentList] == nil {
				scratch[currentEntity][currentList] = []ListItem{}
			}
			continue
		}

		if currentEntity == "" {
			// Unattributed data is discarded, never an error.
			continue
		}

		if currentList != "" {
			scratch[currentEntity][currentList] = append(scratch[currentEntity][currentList], ListItem{Name: before, Description: after})
			continue
		}

		doc.Entity(currentEntity).SetText(before, after)
	}

	// Flush accumulated lists. A list overwrites a same-named text
	// attribute: the bare header line may have been preceded by a stray
	// "name: value" capture of the same attribute.
	for entityKey, lists := range scratch {
		entity := doc.Entity(entityKey)
		for name, items := range lists {
			if len(items) > 0 {
				entity.SetList(name, items)
			}
		}
	}

	return doc
}

// splitFirstColon splits on the first colon only, so descriptions
// containing further colons stay intact. The name side is lower-cased.
// Lines starting with a colon carry no name and do not split.
func splitFirstColon(s string) (name, value string, ok bool) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", "", false
	}
	name = strings.ToLower(strings.TrimSpace(s[:i]))
	value = strings.TrimSpace(s[i+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// matchEntity resolves a header label to an entity key. Matching is
// equality-or-substring on the lower-cased display name, so a display
// name "Alex" claims the header "Alex the Brave:".
func matchEntity(label string, keys []string, entities map[string]string) string {
	for _, key := range keys {
		if label == strings.ToLower(entities[key]) {
			return key
		}
	}
	for _, key := range keys {
		display := strings.ToLower(entities[key])
		if display != "" && strings.Contains(label, display) {
			return key
		}
	}
	return ""
}
