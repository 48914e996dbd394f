package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderNoPlaceholders(t *testing.T) {
	tmpl := "You are a narrator.\nDescribe the scene.\n"
	assert.Equal(t, tmpl, Render(tmpl, Vars{}))
	assert.Equal(t, tmpl, Render(tmpl, nil))
}

func TestRenderSubstitution(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		vars     Vars
		expected string
	}{
		{
			name:     "single variable",
			tmpl:     "You are {{char}}.",
			vars:     Vars{"char": "Aria"},
			expected: "You are Aria.",
		},
		{
			name:     "repeated variable",
			tmpl:     "{{char}} and {{char}} again",
			vars:     Vars{"char": "Aria"},
			expected: "Aria and Aria again",
		},
		{
			name:     "unknown placeholder renders empty",
			tmpl:     "{{missing}}",
			vars:     Vars{},
			expected: "",
		},
		{
			name:     "caller-supplied custom keys",
			tmpl:     "{{item_owner}}'s {{item_name}}",
			vars:     Vars{"item_owner": "Aria", "item_name": "locket"},
			expected: "Aria's locket",
		},
		{
			name:     "non-string values are stringified",
			tmpl:     "turn {{turn}}, again={{again}}",
			vars:     Vars{"turn": 3, "again": true},
			expected: "turn 3, again=true",
		},
		{
			name:     "unclosed braces pass through",
			tmpl:     "a {{char and {{user}}",
			vars:     Vars{"user": "Jordan"},
			expected: "a {{char and Jordan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.tmpl, tt.vars))
		})
	}
}

func TestRenderConditionalTruthiness(t *testing.T) {
	vals := map[string]struct {
		value  any
		set    bool
		truthy bool
	}{
		"unset":        {nil, false, false},
		"nil":          {nil, true, false},
		"empty string": {"", true, false},
		"false":        {false, true, false},
		"zero string":  {"0", true, true},
		"zero int":     {0, true, true},
		"true":         {true, true, true},
		"non-empty":    {"x", true, true},
		"false string": {"false", true, true},
	}

	for name, tc := range vals {
		t.Run("if "+name, func(t *testing.T) {
			vars := Vars{}
			if tc.set {
				vars["v"] = tc.value
			}
			expected := ""
			if tc.truthy {
				expected = "Y"
			}
			assert.Equal(t, expected, Render("{{#if v}}Y{{/if}}", vars))
		})
		t.Run("unless "+name, func(t *testing.T) {
			vars := Vars{}
			if tc.set {
				vars["v"] = tc.value
			}
			expected := "Y"
			if tc.truthy {
				expected = ""
			}
			assert.Equal(t, expected, Render("{{#unless v}}Y{{/unless}}", vars))
		})
	}
}

func TestRenderConditionalsBeforeSubstitution(t *testing.T) {
	tmpl := "Hello {{char}}{{#if scenario}}, in {{scenario}}{{/if}}."

	got := Render(tmpl, Vars{"char": "Aria", "scenario": ""})
	assert.Equal(t, "Hello Aria.", got)

	got = Render(tmpl, Vars{"char": "Aria", "scenario": "a sunny cafe"})
	assert.Equal(t, "Hello Aria, in a sunny cafe.", got)
}

func TestRenderMultipleBlocks(t *testing.T) {
	tmpl := "{{#if a}}A{{/if}}{{#if b}}B{{/if}}{{#unless a}}notA{{/unless}}"
	got := Render(tmpl, Vars{"a": "x", "b": ""})
	assert.Equal(t, "A", got)
}

func TestRenderMalformedBlocks(t *testing.T) {
	// No closing tag: the opening tag survives conditional resolution and
	// is not a plain placeholder, so it passes through.
	got := Render("{{#if a}}body", Vars{"a": "x"})
	assert.Equal(t, "{{#if a}}body", got)

	// Missing variable name.
	got = Render("{{#if }}body{{/if}}", Vars{})
	assert.Equal(t, "{{#if }}body{{/if}}", got)
}

func TestRenderKeepsSurroundingText(t *testing.T) {
	tmpl := "Before.\n{{#if world}}World:\n{{world}}\n{{/if}}After."
	got := Render(tmpl, Vars{"world": "Aria:\nmood: calm"})
	assert.Equal(t, "Before.\nWorld:\nAria:\nmood: calm\nAfter.", got)

	got = Render(tmpl, Vars{})
	assert.Equal(t, "Before.\nAfter.", got)
}
