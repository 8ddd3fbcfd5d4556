package handler

import (
	"net/http"

	"github.com/luaforge/script-platform/internal/events"
	"github.com/luaforge/script-platform/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store       store.Store
	eventsConn  *events.Client
	eventsInUse bool
}

// NewHealthHandler creates a new health handler. eventsConn may be nil
// when event publication is not configured.
func NewHealthHandler(st store.Store, eventsConn *events.Client) *HealthHandler {
	return &HealthHandler{
		store:       st,
		eventsConn:  eventsConn,
		eventsInUse: eventsConn != nil,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "store not configured",
		})
		return
	}

	if h.eventsInUse && !h.eventsConn.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
