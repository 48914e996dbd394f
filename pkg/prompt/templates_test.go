package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSourceReadsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	src := DirSource{Root: dir}

	got, err := src.Read(CategoryChat, "")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	// An edit on disk must be visible on the next read. No caching.
	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	got, err = src.Read(CategoryChat, "")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestDirSourceMissingFile(t *testing.T) {
	src := DirSource{Root: t.TempDir()}
	_, err := src.Read(CategoryChat, "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestDirSourceFilenames(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"chat_system.txt":        "chat",
		"chat_impersonate.txt":   "impersonate default",
		"impersonate_flirty.txt": "impersonate flirty",
		"action_look_scene.txt":  "look scene",
		"writing_style.txt":      "style",
		"world_generation.txt":   "world",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	src := DirSource{Root: dir}

	cases := []struct {
		category Category
		name     string
		expected string
	}{
		{CategoryChat, "", "chat"},
		{CategoryImpersonate, "", "impersonate default"},
		{CategoryImpersonate, "impersonate", "impersonate default"},
		{CategoryImpersonate, "flirty", "impersonate flirty"},
		{CategoryNarration, "look_scene", "look scene"},
		{CategoryStyle, "", "style"},
		{CategoryWorldState, "", "world"},
	}
	for _, tc := range cases {
		got, err := src.Read(tc.category, tc.name)
		require.NoError(t, err, "%s/%s", tc.category, tc.name)
		assert.Equal(t, tc.expected, got)
	}
}

func TestLoadHelpersFallBackToDefaults(t *testing.T) {
	empty := DirSource{Root: t.TempDir()}

	assert.Equal(t, DefaultSystemPrompt, loadChatTemplate(empty))
	assert.Equal(t, DefaultImpersonatePrompt, loadImpersonateTemplate(empty, StyleSarcastic))
	assert.Equal(t, DefaultNarrationPrompts[NarrateLookScene], loadNarrationTemplate(empty, NarrateLookScene))
	assert.Equal(t, DefaultNarrationPrompts[NarrateDefault], loadNarrationTemplate(empty, NarrationType("bogus")))
	assert.Equal(t, "", loadWritingStyle(empty))
	assert.Equal(t, DefaultWorldStatePrompt, loadWorldStateTemplate(empty))
}

func TestLoadHelpersNilSource(t *testing.T) {
	assert.Equal(t, DefaultSystemPrompt, loadChatTemplate(nil))
	assert.Equal(t, DefaultImpersonatePrompt, loadImpersonateTemplate(nil, StyleImpersonate))
}
