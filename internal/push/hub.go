// Package push fans refresh events out to connected operator consoles
// over websockets.
package push

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/bwdnr95/tono-operation-sub000/internal/model"
	"github.com/bwdnr95/tono-operation-sub000/pkg/logger"
	"github.com/bwdnr95/tono-operation-sub000/pkg/metrics"
)

// Hub maintains the set of active console connections and broadcasts
// refresh events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *logger.Logger
}

// NewHub creates a hub. Run must be started on its own goroutine.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// Run processes register, unregister and broadcast requests serially.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			metrics.WSConnectionsActive.Inc()
			h.logger.Debug("console connected",
				zap.String("operator_id", client.operatorID),
				zap.Int("connections", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WSConnectionsActive.Dec()
				h.logger.Debug("console disconnected",
					zap.String("operator_id", client.operatorID),
					zap.Int("connections", len(h.clients)),
				)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the connection.
					delete(h.clients, client)
					close(client.send)
					metrics.WSConnectionsActive.Dec()
				}
			}
		}
	}
}

// BroadcastRefresh sends a refresh event to every connected console.
func (h *Hub) BroadcastRefresh(event model.RefreshEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal refresh event", zap.Error(err))
		return
	}
	h.broadcast <- data
}
