package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"roleplaychat/internal/services/events"
)

const (
	writeWait      = 10 * time.Second
	keepalivePause = 30 * time.Second
)

// EventsHandler upgrades to a websocket and relays a conversation's
// event stream to the client.
type EventsHandler struct {
	broadcaster *events.Broadcaster
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

func NewEventsHandler(broadcaster *events.Broadcaster, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API is same-origin behind the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles GET /v1/conversations/{conversationID}/events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathID(w, r, h.logger, "conversationID")
	if !ok {
		return
	}

	eventCh, err := h.broadcaster.Subscribe(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("Error subscribing to events", "error", err, "conversation_id", conversationID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to subscribe to events.")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.logger.Info("Event stream connected",
		"conversation_id", conversationID,
		"remote_addr", r.RemoteAddr)

	// Drain client frames so close and pong handling keep working.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepalive := time.NewTicker(keepalivePause)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("Event stream client disconnected", "conversation_id", conversationID)
			return

		case event, open := <-eventCh:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("Error writing event", "error", err, "conversation_id", conversationID)
				return
			}

		case <-keepalive.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
