package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

// ScenarioPreset is a reusable scenario file authors drop into the
// scenarios directory.
type ScenarioPreset struct {
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Scenario     string `yaml:"scenario" json:"scenario"`
	FirstMessage string `yaml:"first_message,omitempty" json:"first_message,omitempty"`
}

// ScenarioHandler serves scenario presets from disk. Files are read
// fresh per request, so edits show up without a restart.
type ScenarioHandler struct {
	root   string
	logger *slog.Logger
}

func NewScenarioHandler(root string, logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{root: root, logger: logger}
}

type scenarioListEntry struct {
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.root)
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, h.logger, http.StatusOK, []scenarioListEntry{})
		return
	}
	if err != nil {
		h.logger.Error("Error reading scenarios dir", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list scenarios.")
		return
	}

	out := make([]scenarioListEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		preset, err := h.read(entry.Name())
		if err != nil {
			h.logger.Warn("Skipping unreadable scenario", "filename", entry.Name(), "error", err)
			continue
		}
		out = append(out, scenarioListEntry{
			Filename:    entry.Name(),
			Name:        preset.Name,
			Description: preset.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	writeJSON(w, h.logger, http.StatusOK, out)
}

func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid filename.")
		return
	}

	preset, err := h.read(filename)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, h.logger, http.StatusNotFound, "Scenario not found.")
		return
	}
	if err != nil {
		h.logger.Error("Error reading scenario", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read scenario.")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, preset)
}

func (h *ScenarioHandler) read(filename string) (*ScenarioPreset, error) {
	raw, err := os.ReadFile(filepath.Join(h.root, filename))
	if err != nil {
		return nil, err
	}
	var preset ScenarioPreset
	if err := yaml.Unmarshal(raw, &preset); err != nil {
		return nil, err
	}
	if preset.Name == "" {
		preset.Name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return &preset, nil
}
