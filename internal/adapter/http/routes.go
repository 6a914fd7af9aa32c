package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the service's endpoints to the router. The websocket
// handler is mounted alongside its health/stat surface.
func MountRoutes(r chi.Router, h *Handlers, gateway http.HandlerFunc) {
	r.Get("/health", h.Health)
	r.Get("/ws", gateway)
	r.Get("/ws/health", h.WSHealth)
	r.Get("/ws/stats", h.WSStats)
}
