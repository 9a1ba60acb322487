package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler serves the websocket feeds and their connection stats.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

func (h *WebSocketHandler) handleTopic(topic Topic) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the upgrader has already written an HTTP error on failure
		if err := h.connectionManager.UpgradeConnection(w, r, topic); err != nil {
			log.Error().
				Err(err).
				Str("topic", string(topic)).
				Msg("failed to upgrade websocket connection")
		}
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers websocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/snapshots", h.handleTopic(TopicSnapshots))
	mux.HandleFunc("/ws/events", h.handleTopic(TopicEvents))
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
