package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/elevatecrm/realtime/internal/port/eventbus"
	"github.com/elevatecrm/realtime/internal/registry"
)

// Handlers exposes the synchronous read surface over the connection
// registry and broker.
type Handlers struct {
	Registry *registry.Registry
	Bus      eventbus.Bus // nil when the broker is down
}

// Health reports process liveness and broker reachability.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	broker := "disconnected"
	if h.Bus != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Bus.Ping(ctx); err == nil {
			broker = "connected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"broker":    broker,
		"timestamp": time.Now().UTC(),
	})
}

// WSHealth reports the websocket service's live connection counts.
func (h *Handlers) WSHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"total_connections": h.Registry.TotalConnections(),
		"active_tenants":    h.Registry.ActiveTenants(),
		"timestamp":         time.Now().UTC(),
	})
}

// WSStats reports the per-tenant connection breakdown.
func (h *Handlers) WSStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"total_connections": h.Registry.TotalConnections(),
		"tenants":           h.Registry.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
