package realtime

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket connections and runs one
// session per connection.
type Handler struct {
	registry *Registry
	entries  EntryOperations
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a websocket handler backed by the given registry and
// entry operations.
func NewHandler(registry *Registry, entries EntryOperations, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry: registry,
		entries:  entries,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := NewSession(uuid.NewString(), conn, h.registry, h.entries, h.logger)
	session.Start()
}
