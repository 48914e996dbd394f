package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"roleplaychat/internal/services"
	"roleplaychat/pkg/prompt"
)

// PromptHandler reads and edits the prompt template files, and exposes
// the recent prompt log for debugging.
type PromptHandler struct {
	root   string
	logs   *services.PromptLog
	logger *slog.Logger
}

func NewPromptHandler(root string, logs *services.PromptLog, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{root: root, logs: logs, logger: logger}
}

type promptTemplateResponse struct {
	Category string `json:"category"`
	Name     string `json:"name,omitempty"`
	Filename string `json:"filename"`
	Text     string `json:"text"`

	// Custom is true when the text comes from a file rather than the
	// compiled default.
	Custom bool `json:"custom"`
}

func (h *PromptHandler) resolve(w http.ResponseWriter, r *http.Request) (prompt.Category, string, string, bool) {
	category := prompt.Category(chi.URLParam(r, "category"))
	name := r.URL.Query().Get("name")
	filename, err := prompt.Filename(category, name)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown template category.")
		return "", "", "", false
	}
	return category, name, filename, true
}

// Get returns the active template text, falling back to the compiled
// default when no file overrides it.
func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, name, filename, ok := h.resolve(w, r)
	if !ok {
		return
	}

	resp := promptTemplateResponse{
		Category: string(category),
		Name:     name,
		Filename: filename,
	}
	raw, err := os.ReadFile(filepath.Join(h.root, filename))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		resp.Text = prompt.DefaultText(category, name)
	case err != nil:
		h.logger.Error("Error reading template", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to read template.")
		return
	default:
		resp.Text = string(raw)
		resp.Custom = true
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

type promptUpdateRequest struct {
	Text string `json:"text"`
}

// Put writes the template file. Assemblies pick the new text up on their
// next run since sources re-read per call.
func (h *PromptHandler) Put(w http.ResponseWriter, r *http.Request) {
	category, name, filename, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req promptUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := os.MkdirAll(h.root, 0o755); err != nil {
		h.logger.Error("Error creating prompts dir", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save template.")
		return
	}
	if err := os.WriteFile(filepath.Join(h.root, filename), []byte(req.Text), 0o644); err != nil {
		h.logger.Error("Error writing template", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save template.")
		return
	}

	h.logger.Info("Template updated", "filename", filename)
	writeJSON(w, h.logger, http.StatusOK, promptTemplateResponse{
		Category: string(category),
		Name:     name,
		Filename: filename,
		Text:     req.Text,
		Custom:   true,
	})
}

// Reset deletes the template file, restoring the compiled default.
func (h *PromptHandler) Reset(w http.ResponseWriter, r *http.Request) {
	_, _, filename, ok := h.resolve(w, r)
	if !ok {
		return
	}

	err := os.Remove(filepath.Join(h.root, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Error("Error deleting template", "error", err, "filename", filename)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to reset template.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Logs returns the recent prompt log, optionally filtered by tag.
func (h *PromptHandler) Logs(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	writeJSON(w, h.logger, http.StatusOK, h.logs.Entries(tag))
}
