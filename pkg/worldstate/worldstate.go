package worldstate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Well-known entity keys. Documents may also carry arbitrary custom
// entities (scene props, additional characters).
const (
	EntityCharacter = "character"
	EntityUser      = "user"
)

type AttributeType string

const (
	TypeText AttributeType = "text"
	TypeList AttributeType = "list"
)

// ListItem is one entry of a list-typed attribute, e.g. a worn item.
type ListItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Attribute is a named, typed value owned by an entity. Exactly one of
// Text or Items is meaningful, selected by Type.
type Attribute struct {
	Name  string
	Type  AttributeType
	Text  string
	Items []ListItem
}

// attributeJSON is the wire shape: the value key is a string for text
// attributes and an item array for list attributes.
type attributeJSON struct {
	Name  string          `json:"name"`
	Type  AttributeType   `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	var value any
	switch a.Type {
	case TypeList:
		items := a.Items
		if items == nil {
			items = []ListItem{}
		}
		value = items
	default:
		value = a.Text
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attributeJSON{Name: a.Name, Type: a.Type, Value: raw})
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	var aux attributeJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Name = aux.Name
	a.Type = aux.Type
	a.Text = ""
	a.Items = nil
	if len(aux.Value) == 0 {
		return nil
	}
	switch aux.Type {
	case TypeList:
		if err := json.Unmarshal(aux.Value, &a.Items); err != nil {
			return fmt.Errorf("list attribute %q: %w", aux.Name, err)
		}
	default:
		if err := json.Unmarshal(aux.Value, &a.Text); err != nil {
			return fmt.Errorf("text attribute %q: %w", aux.Name, err)
		}
	}
	return nil
}

// HasContent reports whether the attribute renders to anything.
func (a Attribute) HasContent() bool {
	if a.Type == TypeList {
		return len(a.Items) > 0
	}
	return a.Text != ""
}

// Entity is a named participant's attribute set. Attribute names are
// case-insensitively unique; order of first addition is preserved.
type Entity struct {
	Attributes []Attribute `json:"attributes"`
}

func (e *Entity) find(name string) int {
	key := strings.ToLower(name)
	for i := range e.Attributes {
		if strings.ToLower(e.Attributes[i].Name) == key {
			return i
		}
	}
	return -1
}

// Get returns the attribute with the given name, case-insensitively.
func (e *Entity) Get(name string) (Attribute, bool) {
	if e == nil {
		return Attribute{}, false
	}
	if i := e.find(name); i >= 0 {
		return e.Attributes[i], true
	}
	return Attribute{}, false
}

// Text returns the value of a text attribute, or "" when the attribute
// is absent or list-typed.
func (e *Entity) Text(name string) string {
	if attr, ok := e.Get(name); ok && attr.Type == TypeText {
		return attr.Text
	}
	return ""
}

// List returns the items of a list attribute, or nil when the attribute
// is absent or text-typed.
func (e *Entity) List(name string) []ListItem {
	if attr, ok := e.Get(name); ok && attr.Type == TypeList {
		return attr.Items
	}
	return nil
}

// SetText records a text attribute, replacing any same-named attribute.
func (e *Entity) SetText(name, value string) {
	e.set(Attribute{Name: strings.ToLower(name), Type: TypeText, Text: value})
}

// SetList records a list attribute, replacing any same-named attribute.
// Replacement also changes the type: a list discovered after a
// same-named text attribute wins.
func (e *Entity) SetList(name string, items []ListItem) {
	e.set(Attribute{Name: strings.ToLower(name), Type: TypeList, Items: items})
}

func (e *Entity) set(attr Attribute) {
	if i := e.find(attr.Name); i >= 0 {
		e.Attributes[i] = attr
		return
	}
	e.Attributes = append(e.Attributes, attr)
}

// HasContent reports whether any attribute renders to anything.
func (e *Entity) HasContent() bool {
	if e == nil {
		return false
	}
	for _, attr := range e.Attributes {
		if attr.HasContent() {
			return true
		}
	}
	return false
}

// Document maps entity names to their attribute sets. It is persisted as
// an opaque JSON blob alongside a conversation and fully replaced on
// every successful generation cycle.
type Document map[string]*Entity

// Entity returns the named entity, creating it when absent.
func (d Document) Entity(name string) *Entity {
	if e, ok := d[name]; ok {
		return e
	}
	e := &Entity{}
	d[name] = e
	return e
}

// Keys returns entity names in render order: character first, user
// second, then any custom entities sorted by name.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	var custom []string
	for name := range d {
		if name != EntityCharacter && name != EntityUser {
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)
	if _, ok := d[EntityCharacter]; ok {
		keys = append(keys, EntityCharacter)
	}
	if _, ok := d[EntityUser]; ok {
		keys = append(keys, EntityUser)
	}
	return append(keys, custom...)
}

// HasContent reports whether any entity has a non-empty attribute.
// A document without content means the parser extracted nothing and the
// caller should fall back to defaults.
func (d Document) HasContent() bool {
	for _, e := range d {
		if e.HasContent() {
			return true
		}
	}
	return false
}

// DefaultDocument is the fallback world state used when generation
// produced nothing usable.
func DefaultDocument() Document {
	defaultClothes := func() []ListItem {
		return []ListItem{
			{Name: "top", Description: "casual shirt"},
			{Name: "bottom", Description: "comfortable pants"},
			{Name: "shoes", Description: "everyday footwear"},
		}
	}
	character := &Entity{}
	character.SetText("mood", "neutral")
	character.SetText("position", "standing nearby")
	character.SetList("clothes", defaultClothes())

	user := &Entity{}
	user.SetText("position", "standing nearby")
	user.SetList("clothes", defaultClothes())

	return Document{
		EntityCharacter: character,
		EntityUser:      user,
	}
}
