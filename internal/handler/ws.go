package handler

import (
	"net/http"

	"github.com/bwdnr95/tono-operation-sub000/internal/middleware"
	"github.com/bwdnr95/tono-operation-sub000/internal/push"
)

// WSHandler upgrades console connections for refresh push.
type WSHandler struct {
	hub *push.Hub
}

// NewWSHandler creates a websocket handler.
func NewWSHandler(hub *push.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect handles GET /ws.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	operatorID := middleware.GetOperatorID(r.Context())
	if operatorID == "" {
		writeError(w, http.StatusUnauthorized, "operator identity required")
		return
	}
	h.hub.Serve(w, r, operatorID)
}
