// Package lorebook holds keyword-triggered context entries. Entries are
// authored as YAML files in a directory; when a recent conversation turn
// mentions one of an entry's keywords, the entry's content is injected
// into the prompt as a "World Info" block.
package lorebook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one keyword-triggered lore snippet. Enabled defaults to true
// when omitted. CharacterIDs limits the entry to specific characters; an
// empty list applies everywhere.
type Entry struct {
	Name         string   `yaml:"name"`
	Keywords     []string `yaml:"keywords"`
	Content      string   `yaml:"content"`
	Enabled      *bool    `yaml:"enabled"`
	CharacterIDs []int64  `yaml:"character_ids"`
}

func (e Entry) enabled() bool {
	return e.Enabled == nil || *e.Enabled
}

func (e Entry) appliesTo(characterID int64) bool {
	if len(e.CharacterIDs) == 0 {
		return true
	}
	for _, id := range e.CharacterIDs {
		if id == characterID {
			return true
		}
	}
	return false
}

// file is the on-disk shape: either a single entry or an entries list.
type file struct {
	Entries []Entry `yaml:"entries"`
	Entry   `yaml:",inline"`
}

// Dir is a directory-backed lorebook. Files are re-read on every match
// so author edits take effect without a restart, matching how prompt
// template files behave.
type Dir struct {
	Path string
}

// Load parses all .yaml and .yml files under the directory, sorted by
// filename so injection order is stable. A missing directory yields an
// empty book.
func (d Dir) Load() ([]Entry, error) {
	var paths []string
	err := filepath.WalkDir(d.Path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk lorebook dir: %w", err)
	}
	sort.Strings(paths)

	var entries []Entry
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read lorebook file: %w", err)
		}
		var f file
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		if len(f.Entries) > 0 {
			entries = append(entries, f.Entries...)
		} else if f.Entry.Content != "" {
			entries = append(entries, f.Entry)
		}
	}
	return entries, nil
}

// BuildContext scans the transcript turns for entry keywords and returns
// the matched entries as a prompt block, or "" when nothing matched.
// Matching is a case-insensitive substring check; each entry fires at
// most once. Load failures also return "" since lore is always optional.
func (d Dir) BuildContext(userID, characterID int64, turns []string) string {
	entries, err := d.Load()
	if err != nil || len(entries) == 0 {
		return ""
	}
	return MatchEntries(entries, characterID, turns)
}

// MatchEntries runs keyword matching over an already-loaded entry set.
func MatchEntries(entries []Entry, characterID int64, turns []string) string {
	haystack := strings.ToLower(strings.Join(turns, "\n"))
	if haystack == "" {
		return ""
	}

	var matched []string
	for _, entry := range entries {
		if !entry.enabled() || !entry.appliesTo(characterID) || entry.Content == "" {
			continue
		}
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(haystack, keyword) {
				matched = append(matched, entry.Content)
				break
			}
		}
	}
	if len(matched) == 0 {
		return ""
	}
	return "World Info:\n" + strings.Join(matched, "\n\n")
}
