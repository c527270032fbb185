package handler

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
	natsCheck func() bool
	startTime time.Time
}

// NewHealthHandler creates a health handler. natsCheck may be nil when
// the server runs without a broker.
func NewHealthHandler(natsCheck func() bool) *HealthHandler {
	return &HealthHandler{
		natsCheck: natsCheck,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /ready. It fails when the broker connection is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK

	if h.natsCheck != nil {
		if h.natsCheck() {
			checks["nats"] = "ok"
		} else {
			checks["nats"] = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	resp := healthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Checks: checks,
	}
	if status != http.StatusOK {
		resp.Status = "degraded"
	}
	writeJSON(w, status, resp)
}
