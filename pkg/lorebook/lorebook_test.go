package lorebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLoreFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSingleEntryFile(t *testing.T) {
	dir := t.TempDir()
	writeLoreFile(t, dir, "dragon.yaml", `
name: dragon
keywords: [dragon, wyrm]
content: Dragons in this land hoard memories, not gold.
`)

	entries, err := Dir{Path: dir}.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dragon", entries[0].Name)
	assert.Equal(t, []string{"dragon", "wyrm"}, entries[0].Keywords)
}

func TestLoadEntriesListFile(t *testing.T) {
	dir := t.TempDir()
	writeLoreFile(t, dir, "world.yaml", `
entries:
  - name: capital
    keywords: [city, capital]
    content: The capital is built on a dormant volcano.
  - name: guild
    keywords: [guild]
    content: The adventurers' guild answers to no crown.
    enabled: false
`)

	entries, err := Dir{Path: dir}.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].enabled())
	assert.False(t, entries[1].enabled())
}

func TestLoadMissingDir(t *testing.T) {
	entries, err := Dir{Path: filepath.Join(t.TempDir(), "nope")}.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildContextMatches(t *testing.T) {
	dir := t.TempDir()
	writeLoreFile(t, dir, "lore.yaml", `
entries:
  - name: capital
    keywords: [capital]
    content: The capital is built on a dormant volcano.
  - name: dragon
    keywords: [dragon]
    content: Dragons hoard memories, not gold.
`)

	turns := []string{
		"Jordan: Have you ever been to the Capital?",
		"Aria: Once, long ago.",
	}
	got := Dir{Path: dir}.BuildContext(1, 7, turns)
	assert.Equal(t, "World Info:\nThe capital is built on a dormant volcano.", got)
}

func TestBuildContextNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeLoreFile(t, dir, "lore.yaml", `
name: dragon
keywords: [dragon]
content: Dragons hoard memories.
`)

	assert.Equal(t, "", Dir{Path: dir}.BuildContext(1, 7, []string{"Hello there."}))
	assert.Equal(t, "", Dir{Path: dir}.BuildContext(1, 7, nil))
}

func TestMatchEntriesScopingAndFlags(t *testing.T) {
	enabled := false
	entries := []Entry{
		{Name: "scoped", Keywords: []string{"sword"}, Content: "Scoped lore.", CharacterIDs: []int64{7}},
		{Name: "other", Keywords: []string{"sword"}, Content: "Other character lore.", CharacterIDs: []int64{9}},
		{Name: "off", Keywords: []string{"sword"}, Content: "Disabled lore.", Enabled: &enabled},
	}

	got := MatchEntries(entries, 7, []string{"Jordan draws a sword."})
	assert.Equal(t, "World Info:\nScoped lore.", got)
}

func TestMatchEntriesFiresOncePerEntry(t *testing.T) {
	entries := []Entry{
		{Name: "dragon", Keywords: []string{"dragon", "wyrm"}, Content: "Dragon lore."},
	}

	got := MatchEntries(entries, 0, []string{"A dragon! The wyrm circles overhead, dragon wings wide."})
	assert.Equal(t, "World Info:\nDragon lore.", got)
}
