package worldstate

import (
	"encoding/json"
	"sort"
)

const envelopeStateKey = "worldState"

// Envelope is the serialized blob stored alongside a conversation. The
// world state lives under one key; any other keys (legacy fields written
// by older builds) are carried through round trips untouched. Updates
// shallow-merge at the envelope level and fully replace the world state.
type Envelope struct {
	WorldState Document
	Extra      map[string]json.RawMessage
}

func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(e.Extra)+1)
	for k, v := range e.Extra {
		if k != envelopeStateKey {
			out[k] = v
		}
	}
	if e.WorldState != nil {
		raw, err := json.Marshal(e.WorldState)
		if err != nil {
			return nil, err
		}
		out[envelopeStateKey] = raw
	}
	return json.Marshal(out)
}

// DecodeEnvelope parses a stored blob, upgrading either legacy document
// shape to the generic one. Both superseded shapes are recognized:
//
//   - flat per-entity fields:
//     {"worldState": {"character": {"mood": "...", "clothes": [...]}}}
//   - the oldest clothes-only blob:
//     {"clothes": {"character": [...], "user": [...]}}
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	env := &Envelope{Extra: map[string]json.RawMessage{}}

	if stateRaw, ok := fields[envelopeStateKey]; ok {
		doc, err := decodeDocument(stateRaw)
		if err != nil {
			return nil, err
		}
		env.WorldState = doc
		for k, v := range fields {
			if k != envelopeStateKey {
				env.Extra[k] = v
			}
		}
		return env, nil
	}

	if clothesRaw, ok := fields["clothes"]; ok {
		doc, err := migrateClothesOnly(clothesRaw)
		if err != nil {
			return nil, err
		}
		env.WorldState = doc
		for k, v := range fields {
			if k != "clothes" {
				env.Extra[k] = v
			}
		}
		return env, nil
	}

	env.Extra = fields
	return env, nil
}

// decodeDocument parses a worldState value that is either already in the
// generic shape or in the flat legacy shape.
func decodeDocument(raw []byte) (Document, error) {
	var entities map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, err
	}

	doc := Document{}
	for name, entityRaw := range entities {
		var probe struct {
			Attributes json.RawMessage `json:"attributes"`
		}
		if err := json.Unmarshal(entityRaw, &probe); err == nil && probe.Attributes != nil {
			var entity Entity
			if err := json.Unmarshal(entityRaw, &entity); err != nil {
				return nil, err
			}
			doc[name] = &entity
			continue
		}
		entity, err := migrateFlatEntity(entityRaw)
		if err != nil {
			return nil, err
		}
		doc[name] = entity
	}
	return doc, nil
}

// migrateFlatEntity upgrades the flat {mood, position, clothes, ...}
// shape: mood and position become text attributes, clothes a list
// attribute, and any remaining fields are attributed by their JSON type.
func migrateFlatEntity(raw []byte) (*Entity, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	entity := &Entity{}
	if s := decodeString(fields["mood"]); s != "" {
		entity.SetText("mood", s)
	}
	if s := decodeString(fields["position"]); s != "" {
		entity.SetText("position", s)
	}
	if items, ok := decodeItems(fields["clothes"]); ok {
		entity.SetList("clothes", items)
	}

	rest := make([]string, 0, len(fields))
	for name := range fields {
		if name != "mood" && name != "position" && name != "clothes" {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if items, ok := decodeItems(fields[name]); ok {
			entity.SetList(name, items)
		} else if s := decodeString(fields[name]); s != "" {
			entity.SetText(name, s)
		}
	}
	return entity, nil
}

func migrateClothesOnly(raw []byte) (Document, error) {
	var clothes struct {
		Character []ListItem `json:"character"`
		User      []ListItem `json:"user"`
	}
	if err := json.Unmarshal(raw, &clothes); err != nil {
		return nil, err
	}

	doc := Document{}
	character := doc.Entity(EntityCharacter)
	character.SetList("clothes", orEmpty(clothes.Character))
	user := doc.Entity(EntityUser)
	user.SetList("clothes", orEmpty(clothes.User))
	return doc, nil
}

func orEmpty(items []ListItem) []ListItem {
	if items == nil {
		return []ListItem{}
	}
	return items
}

func decodeString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeItems(raw json.RawMessage) ([]ListItem, bool) {
	if raw == nil {
		return nil, false
	}
	var items []ListItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
