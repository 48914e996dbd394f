// Package handlers exposes the HTTP API: characters, conversations,
// personas, generation endpoints, world state, prompt templates, and the
// realtime event stream.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ErrorResponse is the JSON error body for non-2xx replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// pathID parses the named chi URL parameter as an int64 id. A second
// return of false means the response has already been written.
func pathID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusBadRequest, "Invalid "+name+" in path.")
		return 0, false
	}
	return id, true
}
